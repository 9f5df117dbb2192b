package codec

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipflow/clipflow/internal/content"
)

func flatPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x7f
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// noiseImage is incompressible, so PNG encoding cannot shrink it.
func noiseImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func encodedSize(t *testing.T, img content.Image) int {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	return len(raw)
}

func TestEncodePassThroughWithinBounds(t *testing.T) {
	f := New(0, 0)
	data := flatPNG(t, 64, 48)

	img, err := f.Encode(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), img.Width)
	assert.Equal(t, uint32(48), img.Height)
	// Within bounds means no re-encode: bytes pass through untouched.
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), img.Data)
}

func TestEncodeCapsDimensions(t *testing.T) {
	f := New(1<<20, 32)

	img, err := f.Encode(flatPNG(t, 128, 64))
	require.NoError(t, err)
	assert.Equal(t, uint32(32), img.Width, "longest axis scaled to the ceiling")
	assert.Equal(t, uint32(16), img.Height, "aspect ratio preserved")

	decoded, err := f.Decode(img)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 16), decoded.Bounds())
}

func TestEncodeNeverExceedsBudget(t *testing.T) {
	for _, budget := range []int{4 << 10, 32 << 10, 256 << 10} {
		f := New(budget, 0)
		img, err := f.EncodeImage(noiseImage(300, 200))
		if err != nil {
			assert.ErrorIs(t, err, ErrTooLarge)
			continue
		}
		assert.LessOrEqual(t, encodedSize(t, img), budget,
			"budget %d: oversized payload emitted", budget)
	}
}

func TestEncodeTooLarge(t *testing.T) {
	// 100 bytes is below any expressible PNG of incompressible pixels.
	f := New(100, 0)
	_, err := f.EncodeImage(noiseImage(100, 100))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeRoundTrip(t *testing.T) {
	f := New(0, 0)
	img, err := f.Encode(flatPNG(t, 20, 10))
	require.NoError(t, err)

	rgba, err := f.Decode(img)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), rgba.Bounds())
	assert.Equal(t, color.RGBA{0x7f, 0x7f, 0x7f, 0x7f}, rgba.RGBAAt(3, 3))
}

func TestDecodeRejectsDimensionMismatch(t *testing.T) {
	f := New(0, 0)
	img, err := f.Encode(flatPNG(t, 10, 10))
	require.NoError(t, err)

	img.Width, img.Height = 20, 20
	_, err = f.Decode(img)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsBadTransportEncoding(t *testing.T) {
	f := New(0, 0)
	_, err := f.Decode(content.Image{Data: "!!! not base64 !!!", Width: 1, Height: 1})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDecodeRejectsNonPNG(t *testing.T) {
	f := New(0, 0)
	img := content.Image{
		Data:   base64.StdEncoding.EncodeToString([]byte("junk bytes")),
		Width:  1,
		Height: 1,
	}
	_, err := f.Decode(img)
	assert.ErrorIs(t, err, ErrCorrupt)
}
