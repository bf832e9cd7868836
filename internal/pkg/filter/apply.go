package filter

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/codec"
	"github.com/ds124wfegd/instafilter/internal/pkg/pixbuf"
)

// Options controls the byte-level entry point.
type Options struct {
	Format  codec.Format
	Quality int
	// MaxDimension downsizes larger inputs to fit a square of this size
	// before filtering. Zero disables the limit.
	MaxDimension int
	// MaxPixels bounds width*height as declared by the image header; larger
	// inputs are rejected before any pixel is decoded. Zero derives the
	// budget from MaxDimension, or uses DefaultMaxPixels without one.
	MaxPixels int64
}

// DefaultMaxPixels is the pixel budget when neither MaxPixels nor
// MaxDimension is set.
const DefaultMaxPixels = 50_000_000

func (o Options) pixelLimit() int64 {
	switch {
	case o.MaxPixels > 0:
		return o.MaxPixels
	case o.MaxDimension > 0:
		// до двух MaxDimension по каждой стороне, дальше уменьшаем
		md := int64(o.MaxDimension)
		return 4 * md * md
	default:
		return DefaultMaxPixels
	}
}

// DefaultOptions encodes JPEG at the default quality without resizing.
func DefaultOptions() Options {
	return Options{Format: codec.JPEG, Quality: codec.DefaultQuality}
}

// ApplyFilter decodes data, runs the named filter and encodes the result.
// It fails with ErrUnknownFilter, ErrDecode or ErrEncode.
func ApplyFilter(data []byte, name string, opts Options) ([]byte, error) {
	kind, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return ApplyKind(data, kind, opts)
}

// ApplyKind is ApplyFilter for an already resolved filter. The header is
// checked against the pixel budget before the image is decoded.
func ApplyKind(data []byte, kind Kind, opts Options) ([]byte, error) {
	return ApplyKindContext(context.Background(), data, kind, opts)
}

// ApplyKindContext checks ctx after decoding and after filtering. A stage
// already running is not interrupted.
func ApplyKindContext(ctx context.Context, data []byte, kind Kind, opts Options) ([]byte, error) {
	cfg, err := codec.DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if limit := opts.pixelLimit(); int64(cfg.Width)*int64(cfg.Height) > limit {
		return nil, fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", entity.ErrDecode, cfg.Width, cfg.Height, limit)
	}

	img, err := codec.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if md := opts.MaxDimension; md > 0 {
		if b := img.Bounds(); b.Dx() > md || b.Dy() > md {
			img = imaging.Fit(img, md, md, imaging.Lanczos)
		}
	}

	out, err := Apply(kind, pixbuf.FromImage(img))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return codec.Encode(out, opts.Format, opts.Quality)
}
