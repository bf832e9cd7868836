package filter

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/png"
	"testing"

	"github.com/ds124wfegd/instafilter/internal/entity"
	"github.com/ds124wfegd/instafilter/internal/pkg/codec"
	"github.com/ds124wfegd/instafilter/internal/pkg/pixbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// photo builds a small synthetic RGB picture with a bright square on a
// diagonal gradient.
func photo(t *testing.T, w, h int) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(w, h, pixbuf.RGB)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := b.PixOffset(x, y)
			b.Pix[i] = uint8((x + y) * 255 / (w + h))
			b.Pix[i+1] = uint8(x * 200 / w)
			b.Pix[i+2] = uint8(255 - y*255/h)
			if x > w/4 && x < w/2 && y > h/4 && y < h/2 {
				b.Pix[i], b.Pix[i+1], b.Pix[i+2] = 250, 240, 230
			}
		}
	}
	return b
}

func solid(t *testing.T, w, h int, v uint8) *pixbuf.Buffer {
	t.Helper()
	b, err := pixbuf.New(w, h, pixbuf.RGB)
	require.NoError(t, err)
	for i := range b.Pix {
		b.Pix[i] = v
	}
	return b
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	data, err := codec.Encode(photo(t, 40, 30), codec.JPEG, 90)
	require.NoError(t, err)
	return data
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "pencil sketch", want: PencilSketch},
		{in: "Pencil-Sketch", want: PencilSketch},
		{in: "  pencil_sketch ", want: PencilSketch},
		{in: "pencil   sketch", want: PencilSketch},
		{in: "MAYFAIR", want: Mayfair},
		{in: "brannan", want: Brannan},
		{in: "Brooklyn", want: Brooklyn},
		{in: "reyes", want: Reyes},
		{in: "unknown", wantErr: true},
		{in: "", wantErr: true},
		{in: "pencilsketch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrUnknownFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{"pencil sketch", "brannan", "mayfair", "brooklyn", "reyes"}, Names())
	assert.Equal(t, "pencil-sketch", PencilSketch.Slug())
	assert.False(t, Kind(-1).Valid())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestKindJSON(t *testing.T) {
	var payload struct {
		Filter Kind `json:"filter"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"filter":"Brooklyn"}`), &payload))
	assert.Equal(t, Brooklyn, payload.Filter)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filter":"brooklyn"}`, string(out))

	err = json.Unmarshal([]byte(`{"filter":"sepia"}`), &payload)
	assert.ErrorIs(t, err, entity.ErrUnknownFilter)
}

func TestPipelinesShape(t *testing.T) {
	src := photo(t, 24, 16)
	orig := src.Clone()

	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			out, err := Apply(k, src)
			require.NoError(t, err)
			assert.Equal(t, src.Width, out.Width)
			assert.Equal(t, src.Height, out.Height)
			if k == PencilSketch {
				assert.Equal(t, pixbuf.Gray, out.Channels)
			} else {
				assert.Equal(t, pixbuf.RGB, out.Channels)
			}
			assert.True(t, src.Equal(orig), "input must not be mutated")
			assert.False(t, out.Equal(src))
		})
	}
}

func TestPipelinesAcceptGreyAndAlpha(t *testing.T) {
	grey, err := pixbuf.ToGreyscale(photo(t, 10, 10))
	require.NoError(t, err)

	rgba, err := pixbuf.New(10, 10, pixbuf.RGBA)
	require.NoError(t, err)
	for i := range rgba.Pix {
		rgba.Pix[i] = uint8(i)
	}

	for _, k := range Kinds() {
		for _, in := range []*pixbuf.Buffer{grey, rgba} {
			out, err := Apply(k, in)
			require.NoError(t, err, "%s on %d channels", k, in.Channels)
			assert.Equal(t, 10, out.Width)
		}
	}
}

func TestSketchOfUniformImage(t *testing.T) {
	for _, v := range []uint8{0, 90, 255} {
		out, err := Sketch(solid(t, 2, 2, v))
		require.NoError(t, err)
		require.Equal(t, pixbuf.Gray, out.Channels)
		for _, p := range out.Pix {
			assert.Equal(t, uint8(255), p, "a flat image has no edges to draw (value %d)", v)
		}
	}
}

func TestSketchDrawsEdges(t *testing.T) {
	out, err := Sketch(photo(t, 40, 40))
	require.NoError(t, err)

	darkest := uint8(255)
	for _, p := range out.Pix {
		if p < darkest {
			darkest = p
		}
	}
	assert.Less(t, darkest, uint8(200), "the square outline must show up as strokes")
}

func TestMayfairNotIdempotent(t *testing.T) {
	once, err := ApplyMayfair(photo(t, 20, 20))
	require.NoError(t, err)
	twice, err := ApplyMayfair(once)
	require.NoError(t, err)
	assert.False(t, once.Equal(twice))
}

func TestApplyUnknownKind(t *testing.T) {
	_, err := Apply(Kind(42), photo(t, 2, 2))
	assert.ErrorIs(t, err, entity.ErrUnknownFilter)

	_, err = Apply(Reyes, nil)
	assert.Error(t, err)
}

func TestApplyFilter(t *testing.T) {
	valid := jpegBytes(t)

	tests := []struct {
		name    string
		data    []byte
		filter  string
		wantErr error
	}{
		{name: "garbage bytes", data: []byte("not a picture"), filter: "reyes", wantErr: entity.ErrDecode},
		{name: "empty bytes", data: nil, filter: "mayfair", wantErr: entity.ErrDecode},
		{name: "unknown filter", data: valid, filter: "unknown", wantErr: entity.ErrUnknownFilter},
		{name: "reyes", data: valid, filter: "reyes"},
		{name: "pencil sketch", data: valid, filter: "pencil sketch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyFilter(tt.data, tt.filter, DefaultOptions())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)

			cfg, err := codec.DecodeConfig(out)
			require.NoError(t, err)
			assert.Equal(t, "jpeg", cfg.Format)
			assert.Equal(t, 40, cfg.Width)
			assert.Equal(t, 30, cfg.Height)
		})
	}
}

func TestApplyFilterOptions(t *testing.T) {
	opts := Options{Format: codec.PNG, MaxDimension: 20}

	out, err := ApplyFilter(jpegBytes(t), "brooklyn", opts)
	require.NoError(t, err)

	cfg, err := codec.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "png", cfg.Format)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 15, cfg.Height)
}

func TestApplyBatch(t *testing.T) {
	items := []BatchItem{
		{Name: "a.jpg", Data: jpegBytes(t)},
		{Name: "broken.jpg", Data: []byte("nope")},
		{Name: "c.jpg", Data: jpegBytes(t)},
	}

	results, err := ApplyBatch(context.Background(), Brannan, items, 2, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, items[i].Name, r.Name)
	}
	assert.NoError(t, results[0].Err)
	assert.NotEmpty(t, results[0].Data)
	assert.ErrorIs(t, results[1].Err, entity.ErrDecode)
	assert.NoError(t, results[2].Err)
}

func TestApplyBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ApplyBatch(ctx, Reyes, []BatchItem{{Name: "a", Data: jpegBytes(t)}}, 0, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyKindContextStopsBetweenStages(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ApplyKindContext(cancelled, jpegBytes(t), Brooklyn, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)

	// header checks run first
	_, err = ApplyKindContext(cancelled, []byte("garbage"), Brooklyn, DefaultOptions())
	assert.ErrorIs(t, err, entity.ErrDecode)

	out, err := ApplyKindContext(context.Background(), jpegBytes(t), Brooklyn, DefaultOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

// pngClaiming returns a tiny PNG whose header declares width x height while
// carrying the pixel data of a 1x1 image.
func pngClaiming(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()

	// signature(8) | length(4) "IHDR"(4) width(4) height(4) ... | crc(4)
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestApplyFilterPixelBudget(t *testing.T) {
	huge := pngClaiming(t, 30000, 30000)
	cfg, err := codec.DecodeConfig(huge)
	require.NoError(t, err)
	require.Equal(t, 30000, cfg.Width)

	tests := []struct {
		name    string
		data    []byte
		opts    Options
		wantErr bool
	}{
		{name: "huge header default budget", data: huge, opts: DefaultOptions(), wantErr: true},
		{name: "huge header max dimension", data: huge, opts: Options{MaxDimension: 4096}, wantErr: true},
		{name: "max header", data: pngClaiming(t, 65535, 65535), opts: DefaultOptions(), wantErr: true},
		{name: "exactly at budget", data: jpegBytes(t), opts: Options{MaxPixels: 40 * 30}},
		{name: "one pixel over budget", data: jpegBytes(t), opts: Options{MaxPixels: 40*30 - 1}, wantErr: true},
		{name: "budget from small max dimension", data: jpegBytes(t), opts: Options{MaxDimension: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyFilter(tt.data, "reyes", tt.opts)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrDecode)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func uniformRGB(t *testing.T, w, h int, r, g, b uint8) *pixbuf.Buffer {
	t.Helper()
	buf, err := pixbuf.New(w, h, pixbuf.RGB)
	require.NoError(t, err)
	for i := 0; i < len(buf.Pix); i += pixbuf.RGB {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = r, g, b
	}
	return buf
}

type pixelWant struct {
	x, y    int
	r, g, b uint8
}

// Known outputs of every pipeline. The 5x5 cases sample the corners and the
// middle so that the mask center and orientation are pinned too: mayfair's
// vignette sits up-left of the middle, brooklyn's is centered.
func TestPipelineOutputs(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		in   *pixbuf.Buffer
		want []pixelWant
	}{
		{
			name: "brannan", kind: Brannan, in: uniformRGB(t, 1, 1, 100, 150, 200),
			want: []pixelWant{{0, 0, 172, 179, 186}},
		},
		{
			name: "brannan dark green", kind: Brannan, in: uniformRGB(t, 1, 1, 10, 200, 90),
			want: []pixelWant{{0, 0, 128, 214, 132}},
		},
		{
			name: "reyes", kind: Reyes, in: uniformRGB(t, 1, 1, 100, 150, 200),
			want: []pixelWant{{0, 0, 160, 177, 193}},
		},
		{
			name: "reyes blue", kind: Reyes, in: uniformRGB(t, 1, 1, 30, 60, 220),
			want: []pixelWant{{0, 0, 90, 102, 175}},
		},
		{
			name: "mayfair", kind: Mayfair, in: uniformRGB(t, 5, 5, 100, 100, 100),
			want: []pixelWant{
				{0, 0, 81, 76, 76},
				{1, 0, 109, 99, 99},
				{2, 2, 129, 121, 121},
				{3, 3, 81, 76, 76},
				{4, 4, 59, 59, 59},
			},
		},
		{
			name: "brooklyn", kind: Brooklyn, in: uniformRGB(t, 5, 5, 100, 100, 100),
			want: []pixelWant{
				{0, 0, 140, 147, 145},
				{4, 4, 140, 147, 145},
				{2, 2, 125, 143, 134},
				{1, 2, 125, 143, 134},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(tt.kind, tt.in)
			require.NoError(t, err)
			require.Equal(t, pixbuf.RGB, out.Channels)

			for _, w := range tt.want {
				r, g, b, _ := out.RGBA(w.x, w.y)
				assert.Equal(t, []uint8{w.r, w.g, w.b}, []uint8{r, g, b}, "pixel (%d,%d)", w.x, w.y)
			}
		})
	}
}

func TestSketchOutput(t *testing.T) {
	in, err := pixbuf.FromPix(7, 1, pixbuf.Gray, []uint8{200, 200, 200, 50, 200, 200, 200})
	require.NoError(t, err)

	out, err := Sketch(in)
	require.NoError(t, err)

	// 50*256/(255-80) for the dark stroke, the paper saturates
	assert.Equal(t, []uint8{255, 255, 255, 73, 255, 255, 255}, out.Pix)
}
