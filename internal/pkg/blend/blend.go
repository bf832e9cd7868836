// Package blend implements the separable blend modes used by the filter
// pipelines.
//
// Every mode computes B(b, s) per color channel on values normalized to
// [0,1], where b comes from the base buffer and s from the top layer, then
// composites the result over the base with the top layer's own alpha:
//
//	out = b*(1 - αs) + B(b, s)*αs
//
// The base keeps its alpha channel, if any.
package blend

import (
	"fmt"
	"math"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/pixbuf"
)

// Func is a per-channel blend function on normalized values.
type Func func(b, s float64) float64

// Mode names a blend mode.
type Mode int

const (
	ModeOverlay Mode = iota
	ModeLighten
	ModeSoftLight
)

func (m Mode) String() string {
	switch m {
	case ModeOverlay:
		return "overlay"
	case ModeLighten:
		return "lighten"
	case ModeSoftLight:
		return "soft-light"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Apply blends cs over cb with the given mode.
func Apply(m Mode, cb *pixbuf.Buffer, cs pixbuf.Layer) (*pixbuf.Buffer, error) {
	switch m {
	case ModeOverlay:
		return Overlay(cb, cs)
	case ModeLighten:
		return Lighten(cb, cs)
	case ModeSoftLight:
		return SoftLight(cb, cs)
	default:
		return nil, fmt.Errorf("blend: unsupported mode %s", m)
	}
}

// Overlay multiplies dark base values and screens light ones.
func Overlay(cb *pixbuf.Buffer, cs pixbuf.Layer) (*pixbuf.Buffer, error) {
	return Separable(cb, cs, overlay)
}

// Lighten keeps the lighter of base and top.
func Lighten(cb *pixbuf.Buffer, cs pixbuf.Layer) (*pixbuf.Buffer, error) {
	return Separable(cb, cs, math.Max)
}

// SoftLight darkens or lightens the base depending on the top value.
func SoftLight(cb *pixbuf.Buffer, cs pixbuf.Layer) (*pixbuf.Buffer, error) {
	return Separable(cb, cs, softLight)
}

func overlay(b, s float64) float64 {
	if b < 0.5 {
		return 2 * b * s
	}
	return 1 - 2*(1-b)*(1-s)
}

func softLight(b, s float64) float64 {
	if s <= 0.5 {
		return b - (1-2*s)*b*(1-b)
	}
	var g float64
	if b <= 0.25 {
		g = ((16*b-12)*b + 4) * b
	} else {
		g = math.Sqrt(b)
	}
	return b + (2*s-1)*(g-b)
}

// Separable applies fn per color channel and alpha-composites the result
// over cb. A greyscale base is promoted to RGB first.
func Separable(cb *pixbuf.Buffer, cs pixbuf.Layer, fn Func) (*pixbuf.Buffer, error) {
	if !cb.SameSize(cs) {
		w, h := cs.Size()
		return nil, fmt.Errorf("blend: %w: base %dx%d, layer %dx%d", entity.ErrSizeMismatch, cb.Width, cb.Height, w, h)
	}

	base := cb
	if cb.Channels == pixbuf.Gray {
		base = pixbuf.ToRGB(cb)
	}

	out := base.Clone()
	c := base.Channels
	for y := 0; y < base.Height; y++ {
		for x := 0; x < base.Width; x++ {
			sr, sg, sb, sa := cs.RGBA(x, y)
			if sa == 0 {
				continue
			}
			alpha := float64(sa) / 255
			i := (y*base.Width + x) * c
			src := [3]uint8{sr, sg, sb}
			for ch := 0; ch < 3; ch++ {
				b := float64(base.Pix[i+ch]) / 255
				s := float64(src[ch]) / 255
				v := fn(b, s)
				out.Pix[i+ch] = pixbuf.ClampByte((b*(1-alpha) + v*alpha) * 255)
			}
		}
	}
	return out, nil
}
