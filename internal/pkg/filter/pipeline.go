// Package filter holds the fixed catalog of photo filters. Each pipeline is a
// pure function of its input buffer: it allocates every intermediate result
// and never mutates the caller's buffer.
package filter

import (
	"fmt"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/adjust"
	"github.com/ds124wfegd/instafilter/internal/pkg/blend"
	"github.com/ds124wfegd/instafilter/internal/pkg/pixbuf"
)

// Pencil sketch blur aperture.
const sketchKernel = 21

// stage is one step of a tone-adjustment tail.
type stage func(*pixbuf.Buffer) (*pixbuf.Buffer, error)

func contrast(f float64) stage {
	return func(b *pixbuf.Buffer) (*pixbuf.Buffer, error) { return adjust.Contrast(b, f), nil }
}

func brightness(f float64) stage {
	return func(b *pixbuf.Buffer) (*pixbuf.Buffer, error) { return adjust.Brightness(b, f), nil }
}

func saturate(f float64) stage {
	return func(b *pixbuf.Buffer) (*pixbuf.Buffer, error) { return adjust.Saturate(b, f) }
}

func sepia(f float64) stage {
	return func(b *pixbuf.Buffer) (*pixbuf.Buffer, error) { return adjust.Sepia(b, f) }
}

func run(b *pixbuf.Buffer, stages ...stage) (*pixbuf.Buffer, error) {
	var err error
	for _, s := range stages {
		if b, err = s(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Apply runs the pipeline selected by k.
func Apply(k Kind, b *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	if b == nil {
		return nil, fmt.Errorf("filter %s: nil buffer", k)
	}

	var (
		out *pixbuf.Buffer
		err error
	)
	switch k {
	case PencilSketch:
		out, err = Sketch(b)
	case Mayfair:
		out, err = ApplyMayfair(b)
	case Brannan:
		out, err = ApplyBrannan(b)
	case Brooklyn:
		out, err = ApplyBrooklyn(b)
	case Reyes:
		out, err = ApplyReyes(b)
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownFilter, k)
	}
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", k, err)
	}
	return out, nil
}

// Sketch produces a single-channel pencil drawing by dodging the greyscale
// image with its blurred negative.
func Sketch(b *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	grey := b
	if b.Channels != pixbuf.Gray {
		var err error
		if grey, err = pixbuf.ToGreyscale(b); err != nil {
			return nil, err
		}
	}

	blurred, err := pixbuf.GaussianBlur(pixbuf.Invert(grey), sketchKernel, 0)
	if err != nil {
		return nil, err
	}
	return pixbuf.Dodge(grey, blurred)
}

// ApplyMayfair lays a warm pink vignette centered slightly up and left, then
// boosts contrast and saturation. Applying it twice compounds the effect.
func ApplyMayfair(b *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	cb := pixbuf.ToRGB(b)
	w, h := cb.Size()

	cm1, err := blend.Overlay(cb, pixbuf.Fill(w, h, pixbuf.Color{R: 255, G: 255, B: 255}, 0.8))
	if err != nil {
		return nil, err
	}
	cm2, err := blend.Overlay(cb, pixbuf.Fill(w, h, pixbuf.Color{R: 255, G: 200, B: 200}, 0.6))
	if err != nil {
		return nil, err
	}
	cm3, err := blend.Overlay(cb, pixbuf.Fill(w, h, pixbuf.Color{R: 17, G: 17, B: 17}))
	if err != nil {
		return nil, err
	}

	center := pixbuf.Radial().Centered(0.4, 0.4)
	cs, err := pixbuf.Composite(cm1, cm2, center.WithScale(0.3).Mask(w, h))
	if err != nil {
		return nil, err
	}
	cs, err = pixbuf.Composite(cs, cm3, center.WithLength(0.3).WithScale(0.6).Mask(w, h))
	if err != nil {
		return nil, err
	}

	cr, err := pixbuf.Mix(cb, cs, 0.4)
	if err != nil {
		return nil, err
	}
	return run(cr, contrast(1.1), saturate(1.1))
}

// ApplyBrannan lightens with a purple wash, then adds sepia and contrast.
func ApplyBrannan(b *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	cb := pixbuf.ToRGB(b)
	w, h := cb.Size()

	cr, err := blend.Lighten(cb, pixbuf.Fill(w, h, pixbuf.Color{R: 161, G: 44, B: 199}, 0.31))
	if err != nil {
		return nil, err
	}
	return run(cr, sepia(0.5), contrast(1.4))
}

// ApplyBrooklyn overlays a mint center fading into a lilac border, then
// flattens contrast and brightens.
func ApplyBrooklyn(b *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	cb := pixbuf.ToRGB(b)
	w, h := cb.Size()

	cm1, err := blend.Overlay(cb, pixbuf.Fill(w, h, pixbuf.Color{R: 168, G: 223, B: 193}, 0.4))
	if err != nil {
		return nil, err
	}
	cm2, err := blend.Overlay(cb, pixbuf.Fill(w, h, pixbuf.Color{R: 196, G: 183, B: 200}))
	if err != nil {
		return nil, err
	}

	cr, err := pixbuf.Composite(cm1, cm2, pixbuf.Radial().WithLength(0.7).Mask(w, h))
	if err != nil {
		return nil, err
	}
	return run(cr, contrast(0.9), brightness(1.1))
}

// ApplyReyes washes the image with a soft tan light at half opacity and
// mutes it into a faded vintage look.
func ApplyReyes(b *pixbuf.Buffer) (*pixbuf.Buffer, error) {
	cb := pixbuf.ToRGB(b)
	w, h := cb.Size()

	cs, err := blend.SoftLight(cb, pixbuf.Fill(w, h, pixbuf.Color{R: 239, G: 205, B: 173}))
	if err != nil {
		return nil, err
	}
	cr, err := pixbuf.Mix(cb, cs, 0.5)
	if err != nil {
		return nil, err
	}
	return run(cr, sepia(0.22), brightness(1.1), contrast(0.85), saturate(0.75))
}
