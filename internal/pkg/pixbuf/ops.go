package pixbuf

import (
	"fmt"
	"math"

	"github.com/ds124wfegd/instafilter/internal/entity"
)

// Fixed kernels used instead of the sigma relation for small apertures when
// sigma is derived from the kernel size.
var smallGaussian = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// Invert returns 255 - v for every color channel. Alpha is kept.
func Invert(b *Buffer) *Buffer {
	out := like(b)
	for i, v := range b.Pix {
		if b.Channels == RGBA && i%RGBA == 3 {
			out.Pix[i] = v
			continue
		}
		out.Pix[i] = 255 - v
	}
	return out
}

// Clamp limits every channel to [lo, hi].
func Clamp(b *Buffer, lo, hi uint8) *Buffer {
	if lo > hi {
		lo, hi = hi, lo
	}
	out := like(b)
	for i, v := range b.Pix {
		switch {
		case v < lo:
			out.Pix[i] = lo
		case v > hi:
			out.Pix[i] = hi
		default:
			out.Pix[i] = v
		}
	}
	return out
}

// GaussianSigma derives sigma from the kernel size for sigma <= 0.
func GaussianSigma(kernelSize int) float64 {
	return 0.3*(float64(kernelSize-1)*0.5-1) + 0.8
}

// GaussianKernel returns a normalized 1D kernel. A sigma of zero or less
// selects the sigma derived from kernelSize.
func GaussianKernel(kernelSize int, sigma float64) ([]float64, error) {
	if kernelSize <= 0 || kernelSize%2 == 0 {
		return nil, fmt.Errorf("gaussian kernel %d: %w", kernelSize, entity.ErrInvalidKernel)
	}
	if sigma <= 0 {
		if k, ok := smallGaussian[kernelSize]; ok {
			out := make([]float64, len(k))
			copy(out, k)
			return out, nil
		}
		sigma = GaussianSigma(kernelSize)
	}

	kernel := make([]float64, kernelSize)
	center := kernelSize / 2
	sum := 0.0
	for i := range kernel {
		x := float64(i - center)
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel, nil
}

// GaussianBlur applies a separable Gaussian convolution with reflect-101
// borders (gfedcb|abcdefgh|gfedcba).
func GaussianBlur(b *Buffer, kernelSize int, sigma float64) (*Buffer, error) {
	kernel, err := GaussianKernel(kernelSize, sigma)
	if err != nil {
		return nil, err
	}

	w, h, c := b.Width, b.Height, b.Channels
	radius := kernelSize / 2
	tmp := make([]float64, len(b.Pix))

	// Horizontal pass
	for y := 0; y < h; y++ {
		row := y * w * c
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				sum := 0.0
				for k, weight := range kernel {
					sx := reflect101(x+k-radius, w)
					sum += float64(b.Pix[row+sx*c+ch]) * weight
				}
				tmp[row+x*c+ch] = sum
			}
		}
	}

	// Vertical pass
	out := like(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				sum := 0.0
				for k, weight := range kernel {
					sy := reflect101(y+k-radius, h)
					sum += tmp[(sy*w+x)*c+ch] * weight
				}
				out.Pix[(y*w+x)*c+ch] = ClampByte(sum)
			}
		}
	}
	return out, nil
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// Dodge is the color-dodge division base*256 / (255 - mask), saturated to
// [0,255]. A zero divisor (mask 255) saturates to 255.
func Dodge(base, mask *Buffer) (*Buffer, error) {
	if base.Width != mask.Width || base.Height != mask.Height {
		return nil, fmt.Errorf("dodge: %w: %dx%d vs %dx%d", entity.ErrSizeMismatch, base.Width, base.Height, mask.Width, mask.Height)
	}
	if base.Channels != mask.Channels {
		return nil, fmt.Errorf("dodge: %w: %d vs %d", entity.ErrInvalidChannelCount, base.Channels, mask.Channels)
	}

	out := like(base)
	for i, v := range base.Pix {
		divisor := 255 - int(mask.Pix[i])
		if divisor == 0 {
			out.Pix[i] = 255
			continue
		}
		out.Pix[i] = ClampByte(float64(v) * 256 / float64(divisor))
	}
	return out, nil
}

// Composite picks a where the mask is 255 and b where it is 0, interpolating
// linearly in between. Both inputs must share size and layout; the mask is a
// single-channel buffer of the same size.
func Composite(a, b, mask *Buffer) (*Buffer, error) {
	if err := sameGeometry(a, b); err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}
	if mask.Channels != Gray {
		return nil, fmt.Errorf("composite mask: %w: %d", entity.ErrInvalidChannelCount, mask.Channels)
	}
	if mask.Width != a.Width || mask.Height != a.Height {
		return nil, fmt.Errorf("composite mask: %w", entity.ErrSizeMismatch)
	}

	out := like(a)
	c := a.Channels
	for p, m := range mask.Pix {
		t := float64(m) / 255
		for ch := 0; ch < c; ch++ {
			i := p*c + ch
			out.Pix[i] = ClampByte(float64(a.Pix[i])*t + float64(b.Pix[i])*(1-t))
		}
	}
	return out, nil
}

// Mix blends b over a at a constant opacity: a*(1-weight) + b*weight.
func Mix(a, b *Buffer, weight float64) (*Buffer, error) {
	if err := sameGeometry(a, b); err != nil {
		return nil, fmt.Errorf("mix: %w", err)
	}

	out := like(a)
	for i := range a.Pix {
		out.Pix[i] = ClampByte(float64(a.Pix[i])*(1-weight) + float64(b.Pix[i])*weight)
	}
	return out, nil
}

func sameGeometry(a, b *Buffer) error {
	if a.Width != b.Width || a.Height != b.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", entity.ErrSizeMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	if a.Channels != b.Channels {
		return fmt.Errorf("%w: %d vs %d", entity.ErrInvalidChannelCount, a.Channels, b.Channels)
	}
	return nil
}
