//go:build linux

package clip

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/clipflow/clipflow/internal/content"
)

// New returns the Linux clipboard backend. On Wayland with wl-clipboard
// installed, the wl-paste/wl-copy tools are used directly; otherwise the
// shared desktop backend is tried, degrading to headless when no display
// environment is available.
func New() Backend {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if wlClipboardAvailable() {
			slog.Info("wayland detected, using wl-clipboard backend")
			return &waylandBackend{}
		}
		slog.Warn("wayland detected but wl-clipboard not found, falling back",
			"hint", "install wl-clipboard for better Wayland support")
	}
	if b := newDesktop("Linux clipboard"); b != nil {
		return b
	}
	slog.Warn("clipboard unavailable, running headless")
	return headlessBackend{}
}

func wlClipboardAvailable() bool {
	return exec.Command("wl-paste", "--version").Run() == nil
}

// waylandBackend shells out to wl-paste / wl-copy. Spawning a process per
// poll is what the tools are built for; state lives in the compositor.
type waylandBackend struct {
	mu       sync.Mutex
	lastText string
	lastPNG  []byte
}

func (b *waylandBackend) Name() string { return "wl-clipboard" }

func (b *waylandBackend) Read() (content.Content, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if img, err := exec.Command("wl-paste", "--type", "image/png").Output(); err == nil && len(img) > 0 {
		if bytes.Equal(img, b.lastPNG) {
			return nil, nil
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(img))
		if err != nil {
			return nil, fmt.Errorf("clip: wl-paste image header: %w", err)
		}
		b.lastPNG = img
		b.lastText = ""
		return content.Image{
			Data:   base64.StdEncoding.EncodeToString(img),
			Width:  uint32(cfg.Width),
			Height: uint32(cfg.Height),
		}, nil
	}

	out, err := exec.Command("wl-paste", "--no-newline").Output()
	if err != nil || len(out) == 0 {
		// Empty clipboard exits non-zero; not an error worth surfacing.
		return nil, nil
	}
	text := string(out)
	if text == b.lastText {
		return nil, nil
	}
	b.lastText = text
	b.lastPNG = nil
	return content.Text{Text: text}, nil
}

func (b *waylandBackend) Write(c content.Content) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch v := c.(type) {
	case content.Text:
		if err := wlCopy(nil, []byte(v.Text)); err != nil {
			return err
		}
		b.lastText = v.Text
		b.lastPNG = nil

	case content.Image:
		raw, err := base64.StdEncoding.DecodeString(v.Data)
		if err != nil {
			return fmt.Errorf("clip: image data: %w", err)
		}
		if err := wlCopy([]string{"--type", "image/png"}, raw); err != nil {
			return err
		}
		b.lastPNG = raw
		b.lastText = ""

	case content.HTML:
		if err := wlCopy([]string{"--type", "text/html"}, []byte(v.HTML)); err != nil {
			return err
		}
		b.lastText = v.Text
		b.lastPNG = nil

	default:
		return fmt.Errorf("clip: unsupported content kind %q", c.Kind())
	}
	return nil
}

func (b *waylandBackend) Close() {}

func wlCopy(args []string, data []byte) error {
	cmd := exec.Command("wl-copy", args...)
	cmd.Stdin = bytes.NewReader(data)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clip: wl-copy: %w", err)
	}
	return nil
}
