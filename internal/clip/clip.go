// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_linux.go    — Linux via golang.design/x/clipboard, with a
//	                   wl-clipboard exec fallback on Wayland
//	clip_native.go   — macOS / Windows via golang.design/x/clipboard
//	clip_other.go    — headless / container stub
//
// Backends are polled by the orchestrator; Read returns nil content when the
// clipboard is empty or unchanged since the previous read.
package clip

import "github.com/clipflow/clipflow/internal/content"

// Backend is the capability interface over one system clipboard.
// Implementations are not safe for concurrent use; the orchestrator
// serializes capture and apply through a single dispatch loop.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard content, or nil when the clipboard
	// is empty or has not changed since the last Read or Write.
	Read() (content.Content, error)

	// Write sets the clipboard. Image support is best-effort; HTML content
	// degrades to its plain-text fallback when native HTML is unsupported.
	Write(c content.Content) error

	// Close releases any resources held by the backend.
	Close()
}

// headlessBackend is a no-op backend for environments without a display
// server (headless hosts, containers, CI). It never reports content and
// silently discards writes.
type headlessBackend struct{}

func (headlessBackend) Name() string                    { return "headless (no-op)" }
func (headlessBackend) Read() (content.Content, error)  { return nil, nil }
func (headlessBackend) Write(_ content.Content) error   { return nil }
func (headlessBackend) Close()                          {}
