// Package logging configures the global slog logger for clipflow binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Setup installs the global slog handler: tinted human output on a
// terminal (or when format is "text"), JSON otherwise. Call once after flag
// parsing.
func Setup(format, level string) {
	w := os.Stderr
	var h slog.Handler
	if wantText(format, w) {
		h = tinter.NewHandler(w, &tinter.Options{
			Level:      parseLevel(level),
			TimeFormat: "15:04:05.000",
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	}
	slog.SetDefault(slog.New(h))
}

func wantText(format string, w io.Writer) bool {
	switch strings.ToLower(format) {
	case "text", "tint", "human":
		return true
	case "json":
		return false
	default:
		return isTTY(w)
	}
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
