package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/pixbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(t *testing.T, w, h int) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(w, h, pixbuf.RGB)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := b.PixOffset(x, y)
			b.Pix[i] = uint8(x * 255 / w)
			b.Pix[i+1] = uint8(y * 255 / h)
			b.Pix[i+2] = 128
		}
	}
	return b
}

func TestPNGRoundTrip(t *testing.T) {
	for _, c := range []int{pixbuf.Gray, pixbuf.RGB, pixbuf.RGBA} {
		src, err := pixbuf.New(5, 4, c)
		require.NoError(t, err)
		for i := range src.Pix {
			src.Pix[i] = uint8(i * 13)
		}
		if c == pixbuf.RGBA {
			// keep the image translucent so it decodes back as RGBA
			src.Pix[3] = 100
		}

		data, err := Encode(src, PNG, 0)
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, c, got.Channels)
		assert.True(t, got.Equal(src), "channels %d", c)
	}
}

func TestJPEGRoundTrip(t *testing.T) {
	src := gradient(t, 32, 24)

	data, err := Encode(src, JPEG, 95)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, src.Width, got.Width)
	require.Equal(t, src.Height, got.Height)
	require.Equal(t, pixbuf.RGB, got.Channels)

	for i := range src.Pix {
		diff := int(src.Pix[i]) - int(got.Pix[i])
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 12, "byte %d", i)
	}
}

func TestEncodeQualityFallback(t *testing.T) {
	src := gradient(t, 16, 16)

	def, err := Encode(src, JPEG, DefaultQuality)
	require.NoError(t, err)
	out, err := Encode(src, JPEG, 1000)
	require.NoError(t, err)
	assert.Equal(t, def, out)
}

func TestEncodeRejectsAlphaJPEG(t *testing.T) {
	src, err := pixbuf.New(2, 2, pixbuf.RGBA)
	require.NoError(t, err)

	_, err = Encode(src, JPEG, 90)
	assert.ErrorIs(t, err, entity.ErrEncode)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte("definitely not an image")},
		{name: "truncated png", data: []byte("\x89PNG\r\n\x1a\n\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, entity.ErrDecode)

			_, err = DecodeConfig(tt.data)
			assert.ErrorIs(t, err, entity.ErrDecode)
		})
	}
}

func TestDecodeConfig(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 7, 3))
	img.Set(0, 0, color.NRGBA{R: 1, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	cfg, err := DecodeConfig(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Config{Width: 7, Height: 3, Format: "png"}, cfg)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: JPEG},
		{in: "jpg", want: JPEG},
		{in: "JPEG", want: JPEG},
		{in: ".png", want: PNG},
		{in: "gif", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrEncode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "image/jpeg", JPEG.ContentType())
	assert.Equal(t, "image/png", PNG.ContentType())
	assert.Equal(t, ".jpg", JPEG.Extension())
	assert.Equal(t, ".png", PNG.Extension())
	assert.False(t, JPEG.Supports(pixbuf.RGBA))
	assert.True(t, PNG.Supports(pixbuf.RGBA))
}
