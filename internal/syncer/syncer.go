// Package syncer glues the change detector, the codec, and the clipboard
// backend to the relay server or the client session. It owns the local
// capture loop (fixed-interval polling; no platform is assumed to offer
// change notifications) and the receive→apply loop, including echo
// suppression and rebaselining.
//
// All clipboard access is serialized through one dispatch loop per role, so
// capture and apply never race on the backend handle.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clipflow/clipflow/internal/clip"
	"github.com/clipflow/clipflow/internal/codec"
	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/fingerprint"
)

// DefaultPollInterval is the local capture cadence.
const DefaultPollInterval = 500 * time.Millisecond

// engine holds the state shared by both roles: the backend handle, the
// dedup baseline, the image fitter, and the latest synced envelope
// (exposed for the local control channel).
type engine struct {
	backend clip.Backend
	fitter  codec.Fitter
	det     fingerprint.Detector
	poll    time.Duration

	mu     sync.Mutex
	latest *content.Envelope
}

func newEngine(backend clip.Backend, fitter codec.Fitter, poll time.Duration) *engine {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &engine{backend: backend, fitter: fitter, poll: poll}
}

// capture reads the local clipboard once and returns content that should be
// synced, or nil. Backend failures are logged and skipped; codec failures
// drop the offending content. Neither aborts the loop.
func (e *engine) capture() content.Content {
	c, err := e.backend.Read()
	if err != nil {
		slog.Error("clipboard read failed", "err", err)
		return nil
	}
	if c == nil {
		return nil
	}

	if img, ok := c.(content.Image); ok {
		fitted, err := e.fitImage(img)
		if err != nil {
			slog.Warn("image dropped", "err", err, "size", img.Summary())
			return nil
		}
		c = fitted
	}

	if !e.det.ShouldSync(c) {
		return nil
	}
	slog.Info("local clipboard changed", "content", c.Summary())
	return c
}

// fitImage runs the adaptive encoder over a raw capture.
func (e *engine) fitImage(img content.Image) (content.Image, error) {
	raw, err := codec.RawPNG(img)
	if err != nil {
		return content.Image{}, err
	}
	return e.fitter.Encode(raw)
}

// apply writes remote content to the local clipboard and rebases the dedup
// baseline so the just-applied value is not re-captured and re-broadcast.
func (e *engine) apply(env content.Envelope) {
	if img, ok := env.Content.(content.Image); ok {
		// Materialize the pixels once to validate the payload before it
		// reaches the backend.
		if _, err := e.fitter.Decode(img); err != nil {
			slog.Warn("received image dropped", "err", err)
			return
		}
	}

	if err := e.backend.Write(env.Content); err != nil {
		slog.Error("clipboard write failed", "err", err)
		return
	}
	e.det.Rebase(env.Content)
	slog.Info("clipboard applied", "content", env.Content.Summary(), "origin", origin(env))
}

// remember records env as the newest synced state.
func (e *engine) remember(env content.Envelope) {
	e.mu.Lock()
	e.latest = &env
	e.mu.Unlock()
}

// Latest returns the most recently synced envelope, if any.
func (e *engine) Latest() (content.Envelope, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest == nil {
		return content.Envelope{}, false
	}
	return *e.latest, true
}

// send delivers c to ch unless ctx ends first.
func send(ctx context.Context, ch chan<- content.Content, c content.Content) error {
	select {
	case ch <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func origin(env content.Envelope) string {
	if env.ClientID == "" {
		return "relay"
	}
	return env.ClientID
}
