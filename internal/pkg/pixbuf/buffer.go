// Package pixbuf holds the pixel buffer shared by every filter stage together
// with the color-model conversions, the per-pixel primitives and the radial
// gradient masks built on top of it.
//
// A Buffer is immutable by convention: every function in this package returns
// a freshly allocated buffer and leaves its inputs untouched.
package pixbuf

import (
	"fmt"
	"image"

	"github.com/ds124wfegd/instafilter/internal/entity"
)

// Supported channel layouts.
const (
	Gray = 1
	RGB  = 3
	RGBA = 4
)

// Buffer is a row-major grid of 8-bit pixels with Channels bytes per pixel.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed buffer.
func New(width, height, channels int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("pixbuf: negative size %dx%d", width, height)
	}
	if !validChannels(channels) {
		return nil, fmt.Errorf("pixbuf: %w: %d", entity.ErrInvalidChannelCount, channels)
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// FromPix wraps an existing pixel slice after validating its length.
func FromPix(width, height, channels int, pix []uint8) (*Buffer, error) {
	if !validChannels(channels) {
		return nil, fmt.Errorf("pixbuf: %w: %d", entity.ErrInvalidChannelCount, channels)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("pixbuf: pixel slice has %d bytes, want %d", len(pix), width*height*channels)
	}
	return &Buffer{Width: width, Height: height, Channels: channels, Pix: pix}, nil
}

func validChannels(c int) bool {
	return c == Gray || c == RGB || c == RGBA
}

// like allocates a zeroed buffer with the geometry of b.
func like(b *Buffer) *Buffer {
	return &Buffer{
		Width:    b.Width,
		Height:   b.Height,
		Channels: b.Channels,
		Pix:      make([]uint8, len(b.Pix)),
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := like(b)
	copy(out.Pix, b.Pix)
	return out
}

// Size reports width and height.
func (b *Buffer) Size() (int, int) {
	return b.Width, b.Height
}

// SameSize reports whether both buffers have identical dimensions.
func (b *Buffer) SameSize(o Layer) bool {
	w, h := o.Size()
	return b.Width == w && b.Height == h
}

// HasAlpha reports whether the buffer carries an alpha channel.
func (b *Buffer) HasAlpha() bool {
	return b.Channels == RGBA
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (b *Buffer) PixOffset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

// RGBA returns the straight-alpha color at (x, y). Greyscale pixels are
// replicated into all three color channels; missing alpha reads as opaque.
func (b *Buffer) RGBA(x, y int) (r, g, bl, a uint8) {
	i := b.PixOffset(x, y)
	switch b.Channels {
	case Gray:
		v := b.Pix[i]
		return v, v, v, 255
	case RGB:
		return b.Pix[i], b.Pix[i+1], b.Pix[i+2], 255
	default:
		return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
	}
}

// Equal reports whether two buffers have identical geometry and pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.Width != o.Width || b.Height != o.Height || b.Channels != o.Channels {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// FromImage converts any image.Image into a Buffer. Gray images stay single
// channel, opaque images become RGB and everything else RGBA.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		out := &Buffer{Width: w, Height: h, Channels: Gray, Pix: make([]uint8, w*h)}
		for y := 0; y < h; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			copy(out.Pix[y*w:], row)
		}
		return out
	}

	nrgba := toNRGBA(img)
	channels := RGBA
	if nrgba.Opaque() {
		channels = RGB
	}

	out := &Buffer{Width: w, Height: h, Channels: channels, Pix: make([]uint8, w*h*channels)}
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := out.Pix[y*w*channels:]
		for x := 0; x < w; x++ {
			copy(dst[x*channels:x*channels+channels], src[x*4:x*4+channels])
		}
	}
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && bounds.Min == (image.Point{}) {
		return n
	}
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return out
}

// Image exposes the buffer as a standard library image: *image.Gray for a
// single channel, *image.NRGBA otherwise.
func (b *Buffer) Image() image.Image {
	rect := image.Rect(0, 0, b.Width, b.Height)
	if b.Channels == Gray {
		g := image.NewGray(rect)
		copy(g.Pix, b.Pix)
		return g
	}

	n := image.NewNRGBA(rect)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl, a := b.RGBA(x, y)
			i := n.PixOffset(x, y)
			n.Pix[i], n.Pix[i+1], n.Pix[i+2], n.Pix[i+3] = r, g, bl, a
		}
	}
	return n
}
