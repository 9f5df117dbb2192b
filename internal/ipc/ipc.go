// Package ipc provides the local control channel used by the copy, paste,
// and status CLI commands to talk to a running clipflow daemon (either
// role) instead of opening their own relay connections.
//
// The channel is newline-delimited JSON over a Unix domain socket: one
// request line in, one response line out, connection closed.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/relay"
)

// Ops understood by the daemon.
const (
	OpStatus = "status"
	OpCopy   = "copy"
	OpPaste  = "paste"
)

const requestTimeout = 5 * time.Second

// Request is one control-channel request.
type Request struct {
	Op   string `json:"op"`
	Text string `json:"text,omitempty"` // OpCopy payload
}

// Response is the daemon's reply.
type Response struct {
	Err      string              `json:"err,omitempty"`
	Sessions []relay.SessionInfo `json:"sessions,omitempty"`
	Envelope *content.Envelope   `json:"envelope,omitempty"`
}

// Control is what the daemon exposes to the control channel. Both
// orchestrator roles implement it.
type Control interface {
	Latest() (content.Envelope, bool)
	Sessions() []relay.SessionInfo
	Inject(ctx context.Context, c content.Content) error
}

// SocketPath returns the control socket path: $CLIPFLOW_SOCKET overrides,
// then $XDG_RUNTIME_DIR, then the temp dir.
func SocketPath() string {
	if s := os.Getenv("CLIPFLOW_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipflow.sock")
	}
	return filepath.Join(os.TempDir(), "clipflow.sock")
}

// Listen creates the control socket, removing any stale socket file from a
// previous run first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Serve answers control requests until ctx is cancelled or the listener
// closes. Failures are per-connection; the loop never aborts the daemon.
func Serve(ctx context.Context, ln net.Listener, ctrl Control) {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handle(ctx, conn, ctrl)
	}
}

func handle(ctx context.Context, conn net.Conn, ctrl Control) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))

	var req Request
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&req); err != nil {
		slog.Debug("ipc: bad request", "err", err)
		return
	}

	var resp Response
	switch req.Op {
	case OpStatus:
		resp.Sessions = ctrl.Sessions()
		if env, ok := ctrl.Latest(); ok {
			resp.Envelope = &env
		}

	case OpCopy:
		if err := ctrl.Inject(ctx, content.Text{Text: req.Text}); err != nil {
			resp.Err = err.Error()
		}

	case OpPaste:
		if env, ok := ctrl.Latest(); ok {
			resp.Envelope = &env
		}

	default:
		resp.Err = fmt.Sprintf("unknown op %q", req.Op)
	}

	if err := json.NewEncoder(conn).Encode(&resp); err != nil {
		slog.Debug("ipc: reply failed", "err", err)
	}
}

// Call dials the control socket, sends req, and returns the response. Used
// by the CLI commands.
func Call(req Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", SocketPath(), requestTimeout)
	if err != nil {
		return nil, fmt.Errorf("no running clipflow daemon on %s: %w", SocketPath(), err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))

	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		return nil, fmt.Errorf("ipc: send: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("ipc: read: %w", err)
	}
	if resp.Err != "" {
		return nil, fmt.Errorf("ipc: %s", resp.Err)
	}
	return &resp, nil
}
