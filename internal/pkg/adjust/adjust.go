// Package adjust provides the global tone operators of the filter catalog.
// They follow the CSS filter-effects definitions: values are normalized to
// [0,1], transformed and rescaled, with alpha passing through unchanged.
package adjust

import (
	"fmt"
	"math"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/pixbuf"
)

// Luma weights of the CSS saturate() matrix.
const (
	satR = 0.2126
	satG = 0.7152
	satB = 0.0722
)

// sepiaMatrix is the full-strength CSS sepia() transform.
var sepiaMatrix = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

// Contrast scales every color channel around mid-grey: (v-0.5)*factor + 0.5.
func Contrast(b *pixbuf.Buffer, factor float64) *pixbuf.Buffer {
	f := intensity(factor)
	return pointwise(b, func(v float64) float64 {
		return (v-0.5)*f + 0.5
	})
}

// Brightness multiplies every color channel by factor.
func Brightness(b *pixbuf.Buffer, factor float64) *pixbuf.Buffer {
	f := intensity(factor)
	return pointwise(b, func(v float64) float64 {
		return v * f
	})
}

// Saturate moves each pixel away from (factor > 1) or toward (factor < 1)
// its own luma.
func Saturate(b *pixbuf.Buffer, factor float64) (*pixbuf.Buffer, error) {
	f := intensity(factor)
	return matrix(b, func(r, g, bl float64) (float64, float64, float64) {
		l := satR*r + satG*g + satB*bl
		return l + f*(r-l), l + f*(g-l), l + f*(bl-l)
	})
}

// Sepia mixes each pixel with its sepia-toned version. The amount is
// clamped to [0,1]; 0 is the identity and 1 the full sepia matrix.
func Sepia(b *pixbuf.Buffer, amount float64) (*pixbuf.Buffer, error) {
	a := math.Min(intensity(amount), 1)
	return matrix(b, func(r, g, bl float64) (float64, float64, float64) {
		var out [3]float64
		for row, m := range sepiaMatrix {
			toned := m[0]*r + m[1]*g + m[2]*bl
			orig := [3]float64{r, g, bl}[row]
			out[row] = (1-a)*orig + a*toned
		}
		return out[0], out[1], out[2]
	})
}

// intensity rejects negative and NaN factors by clamping them to zero.
func intensity(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

func isAlpha(b *pixbuf.Buffer, i int) bool {
	return b.Channels == pixbuf.RGBA && i%pixbuf.RGBA == 3
}

func pointwise(b *pixbuf.Buffer, fn func(v float64) float64) *pixbuf.Buffer {
	var lut [256]uint8
	for v := range lut {
		lut[v] = pixbuf.ClampByte(fn(float64(v)/255) * 255)
	}

	out := b.Clone()
	for i, v := range b.Pix {
		if isAlpha(b, i) {
			continue
		}
		out.Pix[i] = lut[v]
	}
	return out
}

func matrix(b *pixbuf.Buffer, fn func(r, g, bl float64) (float64, float64, float64)) (*pixbuf.Buffer, error) {
	if b.Channels < pixbuf.RGB {
		return nil, fmt.Errorf("adjust: %w: got %d, want 3 or 4", entity.ErrInvalidChannelCount, b.Channels)
	}

	out := b.Clone()
	for i := 0; i < len(b.Pix); i += b.Channels {
		r, g, bl := fn(float64(b.Pix[i])/255, float64(b.Pix[i+1])/255, float64(b.Pix[i+2])/255)
		out.Pix[i] = pixbuf.ClampByte(r * 255)
		out.Pix[i+1] = pixbuf.ClampByte(g * 255)
		out.Pix[i+2] = pixbuf.ClampByte(bl * 255)
	}
	return out, nil
}
