//go:build linux || darwin || windows

package clip

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"sync"

	"golang.design/x/clipboard"

	"github.com/clipflow/clipflow/internal/content"
)

// desktopBackend reads and writes the system clipboard through
// golang.design/x/clipboard. It remembers the last observed bytes so that
// Read reports nil until the clipboard actually changes.
type desktopBackend struct {
	name string

	mu       sync.Mutex
	lastText []byte
	lastPNG  []byte
}

// newDesktop initializes the native clipboard, or returns the headless
// backend when no display environment is available.
func newDesktop(name string) Backend {
	if err := clipboard.Init(); err != nil {
		return nil
	}
	return &desktopBackend{name: name}
}

func (b *desktopBackend) Name() string { return b.name }

func (b *desktopBackend) Read() (content.Content, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Prefer an image when one is present, falling back to text.
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		if bytes.Equal(img, b.lastPNG) {
			return nil, nil
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(img))
		if err != nil {
			return nil, fmt.Errorf("clip: image header: %w", err)
		}
		b.lastPNG = img
		b.lastText = nil
		return content.Image{
			Data:   base64.StdEncoding.EncodeToString(img),
			Width:  uint32(cfg.Width),
			Height: uint32(cfg.Height),
		}, nil
	}

	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		if bytes.Equal(text, b.lastText) {
			return nil, nil
		}
		b.lastText = text
		b.lastPNG = nil
		return content.Text{Text: string(text)}, nil
	}

	return nil, nil
}

func (b *desktopBackend) Write(c content.Content) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch v := c.(type) {
	case content.Text:
		clipboard.Write(clipboard.FmtText, []byte(v.Text))
		b.lastText = []byte(v.Text)
		b.lastPNG = nil

	case content.Image:
		raw, err := base64.StdEncoding.DecodeString(v.Data)
		if err != nil {
			return fmt.Errorf("clip: image data: %w", err)
		}
		clipboard.Write(clipboard.FmtImage, raw)
		b.lastPNG = raw
		b.lastText = nil

	case content.HTML:
		// No native HTML format here; write the plain-text fallback.
		clipboard.Write(clipboard.FmtText, []byte(v.Text))
		b.lastText = []byte(v.Text)
		b.lastPNG = nil

	default:
		return fmt.Errorf("clip: unsupported content kind %q", c.Kind())
	}
	return nil
}

func (b *desktopBackend) Close() {}
