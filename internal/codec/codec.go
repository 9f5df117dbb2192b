// Package codec converts captured images into transport-safe content within
// size and dimension ceilings, and reverses the conversion before the content
// is written back to a clipboard.
//
// The encode path is adaptive: oversized captures are scaled down, cheaply
// pre-scaled when the raw pixel estimate cannot possibly fit, and re-encoded
// at a shrinking scale until the PNG fits the byte budget or the attempt
// ceiling is hit. The codec never emits a payload above the budget.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/clipflow/clipflow/internal/content"
)

const (
	// DefaultMaxBytes is the default encoded-size budget (5 MiB).
	DefaultMaxBytes = 5 * 1024 * 1024

	// DefaultMaxDimension is the default per-axis pixel ceiling.
	DefaultMaxDimension = 4096

	// maxAttempts bounds the encode-shrink-reencode loop.
	maxAttempts = 3

	// shrinkFactor is applied per retry when the encoded size is over budget.
	shrinkFactor = 0.7

	// minDimension keeps retries from collapsing the image entirely.
	minDimension = 100
)

var (
	// ErrTooLarge reports an image that could not be fit within the byte
	// budget after all attempts. The content must be dropped, not retried.
	ErrTooLarge = errors.New("codec: image exceeds size limit")

	// ErrCorrupt reports image content whose decoded pixels do not match the
	// declared dimensions.
	ErrCorrupt = errors.New("codec: corrupt image content")
)

// Fitter holds the encode ceilings. The zero value is unusable; construct
// with New.
type Fitter struct {
	maxBytes int
	maxDim   int
}

// New returns a Fitter with the given ceilings. Non-positive values select
// the defaults.
func New(maxBytes, maxDim int) Fitter {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return Fitter{maxBytes: maxBytes, maxDim: maxDim}
}

// MaxBytes returns the encoded-size budget.
func (f Fitter) MaxBytes() int { return f.maxBytes }

// Encode converts captured PNG bytes into image content guaranteed within
// the ceilings. Captures already within bounds pass through without a
// re-encode.
func (f Fitter) Encode(pngData []byte) (content.Image, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return content.Image{}, fmt.Errorf("codec: decode config: %w", err)
	}

	if len(pngData) <= f.maxBytes && cfg.Width <= f.maxDim && cfg.Height <= f.maxDim {
		return content.Image{
			Data:   base64.StdEncoding.EncodeToString(pngData),
			Width:  uint32(cfg.Width),
			Height: uint32(cfg.Height),
		}, nil
	}

	src, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return content.Image{}, fmt.Errorf("codec: decode: %w", err)
	}
	return f.fit(src)
}

// EncodeImage is Encode for an already-decoded image.
func (f Fitter) EncodeImage(src image.Image) (content.Image, error) {
	return f.fit(src)
}

func (f Fitter) fit(src image.Image) (content.Image, error) {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	tw, th := w, h

	// Uniform scale to the per-axis ceiling, preserving aspect ratio.
	if tw > f.maxDim || th > f.maxDim {
		scale := float64(f.maxDim) / float64(max(tw, th))
		tw = int(float64(tw) * scale)
		th = int(float64(th) * scale)
	}

	// Pre-scale when the raw pixel footprint cannot possibly encode within
	// budget, so the first expensive encode pass is not wasted.
	budget := f.maxBytes * 2
	if estimate := tw * th * 4; estimate > budget {
		scale := math.Sqrt(float64(budget) / float64(estimate))
		tw = int(float64(tw) * scale)
		th = int(float64(th) * scale)
	}

	cur := src
	if tw != w || th != h {
		cur = resize(src, max(tw, 1), max(th, 1), draw.CatmullRom)
	}

	for attempt := 1; ; attempt++ {
		var buf bytes.Buffer
		if err := png.Encode(&buf, cur); err != nil {
			return content.Image{}, fmt.Errorf("codec: encode: %w", err)
		}
		if buf.Len() <= f.maxBytes {
			return content.Image{
				Data:   base64.StdEncoding.EncodeToString(buf.Bytes()),
				Width:  uint32(cur.Bounds().Dx()),
				Height: uint32(cur.Bounds().Dy()),
			}, nil
		}
		if attempt >= maxAttempts {
			return content.Image{}, fmt.Errorf("%w: %d bytes after %d attempts (max %d)",
				ErrTooLarge, buf.Len(), attempt, f.maxBytes)
		}
		// Still over budget: shrink and use a cheaper filter for speed.
		nw := max(int(float64(cur.Bounds().Dx())*shrinkFactor), minDimension)
		nh := max(int(float64(cur.Bounds().Dy())*shrinkFactor), minDimension)
		cur = resize(cur, nw, nh, draw.ApproxBiLinear)
	}
}

// Decode reverses the transport encoding and materializes raw RGBA pixels.
// Fails with ErrCorrupt when the decoded image does not match the declared
// dimensions.
func (f Fitter) Decode(img content.Image) (*image.RGBA, error) {
	raw, err := RawPNG(img)
	if err != nil {
		return nil, err
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	b := decoded.Bounds()
	if uint32(b.Dx()) != img.Width || uint32(b.Dy()) != img.Height {
		return nil, fmt.Errorf("%w: decoded %dx%d, declared %dx%d",
			ErrCorrupt, b.Dx(), b.Dy(), img.Width, img.Height)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), decoded, b.Min, draw.Src)
	return rgba, nil
}

// RawPNG strips the transport-safe text encoding, returning the PNG bytes.
func RawPNG(img content.Image) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorrupt, err)
	}
	return raw, nil
}

func resize(src image.Image, w, h int, scaler draw.Scaler) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
