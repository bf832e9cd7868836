package pixbuf

import "math"

// RadialGradient describes a radial alpha falloff. Center is in normalized
// image coordinates; Length and Scale are fractions of the gradient ray, the
// distance from the center to the farthest image corner. The mask is 1 up to
// Length, falls linearly to 0 at Scale and stays 0 beyond.
type RadialGradient struct {
	CenterX float64
	CenterY float64
	Length  float64
	Scale   float64
}

// Radial returns a centered gradient with Length 0 and Scale 1.
func Radial() RadialGradient {
	return RadialGradient{CenterX: 0.5, CenterY: 0.5, Length: 0, Scale: 1}
}

// Centered moves the gradient center.
func (g RadialGradient) Centered(x, y float64) RadialGradient {
	g.CenterX, g.CenterY = x, y
	return g
}

// WithLength sets the fully opaque inner fraction.
func (g RadialGradient) WithLength(length float64) RadialGradient {
	g.Length = length
	return g
}

// WithScale sets the fraction at which the mask reaches zero.
func (g RadialGradient) WithScale(scale float64) RadialGradient {
	g.Scale = scale
	return g
}

// ray returns the center in pixels and the distance to the farthest corner.
func (g RadialGradient) ray(width, height int) (cx, cy, r float64) {
	w, h := float64(width), float64(height)
	cx, cy = g.CenterX*w, g.CenterY*h
	dx := math.Max(cx, w-cx)
	dy := math.Max(cy, h-cy)
	return cx, cy, math.Hypot(dx, dy)
}

// Value evaluates the mask in [0,1] at pixel-space point (px, py) of a
// width x height image.
func (g RadialGradient) Value(width, height int, px, py float64) float64 {
	cx, cy, r := g.ray(width, height)
	if r == 0 {
		return 1
	}
	return g.falloff(math.Hypot(px-cx, py-cy) / r)
}

func (g RadialGradient) falloff(d float64) float64 {
	if d <= g.Length {
		return 1
	}
	if d >= g.Scale {
		return 0
	}
	return clampUnit((g.Scale - d) / (g.Scale - g.Length))
}

// Mask renders the gradient as a single-channel buffer sampled at pixel
// centers, 255 meaning fully opaque.
func (g RadialGradient) Mask(width, height int) *Buffer {
	out := &Buffer{Width: width, Height: height, Channels: Gray, Pix: make([]uint8, width*height)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := g.Value(width, height, float64(x)+0.5, float64(y)+0.5)
			out.Pix[y*width+x] = ClampByte(v * 255)
		}
	}
	return out
}
