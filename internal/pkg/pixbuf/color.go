package pixbuf

import (
	"fmt"
	"math"

	"github.com/ds124wfegd/instafilter/internal/entity"
)

// Rec.601 luma weights used for greyscale reduction.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Layer is anything that can be sampled as a straight-alpha RGBA top layer.
// Both Buffer and ColorFill satisfy it.
type Layer interface {
	Size() (int, int)
	RGBA(x, y int) (r, g, b, a uint8)
}

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// ColorFill is a constant-color layer of a given size. It is sampled on
// demand and only materialized by Expand.
type ColorFill struct {
	Width  int
	Height int
	Color  Color
	Alpha  float64
}

// Fill returns a ColorFill of the given size. Alpha is optional, in [0,1]
// and defaults to fully opaque.
func Fill(width, height int, c Color, alpha ...float64) ColorFill {
	a := 1.0
	if len(alpha) > 0 {
		a = clampUnit(alpha[0])
	}
	return ColorFill{Width: width, Height: height, Color: c, Alpha: a}
}

// Size reports the fill dimensions.
func (f ColorFill) Size() (int, int) {
	return f.Width, f.Height
}

// RGBA returns the fill color; the position is ignored.
func (f ColorFill) RGBA(_, _ int) (r, g, b, a uint8) {
	return f.Color.R, f.Color.G, f.Color.B, uint8(math.Round(f.Alpha * 255))
}

// Expand materializes the fill as an RGBA buffer.
func (f ColorFill) Expand() *Buffer {
	out := &Buffer{Width: f.Width, Height: f.Height, Channels: RGBA, Pix: make([]uint8, f.Width*f.Height*RGBA)}
	r, g, b, a := f.RGBA(0, 0)
	for i := 0; i < len(out.Pix); i += RGBA {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, a
	}
	return out
}

// ToGreyscale reduces an RGB or RGBA buffer to a single luma channel.
// Alpha is discarded.
func ToGreyscale(b *Buffer) (*Buffer, error) {
	if b.Channels != RGB && b.Channels != RGBA {
		return nil, fmt.Errorf("greyscale: %w: got %d, want 3 or 4", entity.ErrInvalidChannelCount, b.Channels)
	}

	out := &Buffer{Width: b.Width, Height: b.Height, Channels: Gray, Pix: make([]uint8, b.Width*b.Height)}
	for p, i := 0, 0; p < len(out.Pix); p, i = p+1, i+b.Channels {
		y := lumaR*float64(b.Pix[i]) + lumaG*float64(b.Pix[i+1]) + lumaB*float64(b.Pix[i+2])
		out.Pix[p] = ClampByte(y)
	}
	return out, nil
}

// ToRGB normalizes any buffer to three channels: greyscale is replicated,
// RGB is copied and RGBA drops its alpha.
func ToRGB(b *Buffer) *Buffer {
	if b.Channels == RGB {
		return b.Clone()
	}

	out := &Buffer{Width: b.Width, Height: b.Height, Channels: RGB, Pix: make([]uint8, b.Width*b.Height*RGB)}
	for p, i := 0, 0; i < len(out.Pix); p, i = p+b.Channels, i+RGB {
		if b.Channels == Gray {
			v := b.Pix[p]
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
			continue
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = b.Pix[p], b.Pix[p+1], b.Pix[p+2]
	}
	return out
}

// Channel extracts channel c as a single-channel buffer.
func Channel(b *Buffer, c int) (*Buffer, error) {
	if c < 0 || c >= b.Channels {
		return nil, fmt.Errorf("channel %d: %w: buffer has %d", c, entity.ErrInvalidChannelCount, b.Channels)
	}

	out := &Buffer{Width: b.Width, Height: b.Height, Channels: Gray, Pix: make([]uint8, b.Width*b.Height)}
	for p, i := 0, c; p < len(out.Pix); p, i = p+1, i+b.Channels {
		out.Pix[p] = b.Pix[i]
	}
	return out, nil
}

// ClampByte rounds v to the nearest integer and saturates it to [0,255].
func ClampByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
