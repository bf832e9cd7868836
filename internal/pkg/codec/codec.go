// Package codec converts between encoded image bytes and pixel buffers.
package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/pixbuf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultQuality matches the quality a plain JPEG save produces.
const DefaultQuality = 75

// Format is an output encoding.
type Format int

const (
	JPEG Format = iota
	PNG
)

// ParseFormat maps a name such as "jpg" or "png" to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "jpg", "jpeg", "":
		return JPEG, nil
	case "png":
		return PNG, nil
	default:
		return 0, fmt.Errorf("%w: unsupported format %q", entity.ErrEncode, name)
	}
}

func (f Format) String() string {
	if f == PNG {
		return "png"
	}
	return "jpeg"
}

// ContentType is the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Extension is the file extension including the dot.
func (f Format) Extension() string {
	if f == PNG {
		return ".png"
	}
	return ".jpg"
}

// Supports reports whether the format can store the channel layout.
func (f Format) Supports(channels int) bool {
	switch f {
	case JPEG:
		return channels == pixbuf.Gray || channels == pixbuf.RGB
	case PNG:
		return channels == pixbuf.Gray || channels == pixbuf.RGB || channels == pixbuf.RGBA
	default:
		return false
	}
}

// Config describes an encoded image without decoding its pixels.
type Config struct {
	Width  int
	Height int
	Format string
}

// DecodeConfig reads only the image header.
func DecodeConfig(data []byte) (Config, error) {
	if len(data) == 0 {
		return Config{}, fmt.Errorf("%w: empty input", entity.ErrDecode)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	return Config{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// DecodeImage decodes any registered format, applying EXIF orientation.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", entity.ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	return img, nil
}

// Decode decodes bytes into a Buffer.
func Decode(data []byte) (*pixbuf.Buffer, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return pixbuf.FromImage(img), nil
}

// Encode serializes a buffer. Quality applies to JPEG only; values outside
// 1..100 fall back to DefaultQuality.
func Encode(b *pixbuf.Buffer, f Format, quality int) ([]byte, error) {
	if !f.Supports(b.Channels) {
		return nil, fmt.Errorf("%w: %s cannot store %d channels", entity.ErrEncode, f, b.Channels)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch f {
	case PNG:
		err = imaging.Encode(&buf, b.Image(), imaging.PNG)
	default:
		err = imaging.Encode(&buf, b.Image(), imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
	}
	return buf.Bytes(), nil
}
