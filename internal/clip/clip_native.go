//go:build darwin || windows

package clip

import (
	"log/slog"
	"runtime"
)

// New returns the native clipboard backend, or the headless stub when the
// display environment is unavailable.
func New() Backend {
	name := "macOS NSPasteboard"
	if runtime.GOOS == "windows" {
		name = "Windows clipboard"
	}
	if b := newDesktop(name); b != nil {
		return b
	}
	slog.Warn("clipboard unavailable, running headless")
	return headlessBackend{}
}
