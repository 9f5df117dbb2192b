// Package relay implements the broadcast relay server: it accepts TCP
// connections and fans every received envelope out to all other connections.
//
// The relay itself never touches a clipboard. Received envelopes are pushed
// to a shared sink consumed by the orchestrator, which decides what to
// re-broadcast; outbound traffic for every session comes from a shared bus
// subscription so that one slow client can never block the others.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/hub"
	"github.com/clipflow/clipflow/internal/wire"
)

// Inbound is one envelope received from a connected client, tagged with the
// session it arrived on.
type Inbound struct {
	Envelope content.Envelope
	Session  string
}

// SessionInfo describes one connected session for introspection.
type SessionInfo struct {
	Addr        string    `json:"addr"`
	ClientID    string    `json:"client_id,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Server accepts client connections and relays envelopes between them.
type Server struct {
	addr    string
	bus     *hub.Bus
	inbound chan<- Inbound

	mu       sync.Mutex
	lnAddr   net.Addr
	sessions map[string]*session
}

// New builds a Server that publishes received envelopes to inbound and
// drains bus for outbound fanout. The orchestrator owns both ends.
func New(addr string, bus *hub.Bus, inbound chan<- Inbound) *Server {
	return &Server{
		addr:     addr,
		bus:      bus,
		inbound:  inbound,
		sessions: make(map[string]*session),
	}
}

// Run binds the listen address and accepts connections until ctx is
// cancelled. A bind failure is returned to the caller and is the only
// process-fatal condition; individual session failures never abort the
// accept loop.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("relay: listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.lnAddr = ln.Addr()
	s.mu.Unlock()
	slog.Info("relay listening", "addr", ln.Addr())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("accept failed", "err", err)
			continue
		}
		go s.serveSession(ctx, conn)
	}
}

// Addr returns the bound listen address, or nil before Run has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lnAddr
}

// Sessions returns a snapshot of the connected sessions.
func (s *Server) Sessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.info())
	}
	return out
}

// session is one accepted connection with its two concurrently-running
// directions.
type session struct {
	id   string
	conn *wire.Conn

	mu          sync.Mutex
	clientID    string
	connectedAt time.Time
}

func (c *session) info() SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SessionInfo{Addr: c.id, ClientID: c.clientID, ConnectedAt: c.connectedAt}
}

// setClientID remembers the identity stamped on this session's inbound
// envelopes. The outbound direction uses it to avoid echoing a client's own
// content back over its wire.
func (c *session) setClientID(id string) {
	c.mu.Lock()
	c.clientID = id
	c.mu.Unlock()
}

func (c *session) isOwn(env content.Envelope) bool {
	if env.ClientID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return env.ClientID == c.clientID
}

func (s *Server) serveSession(ctx context.Context, nc net.Conn) {
	sess := &session{
		id:          nc.RemoteAddr().String(),
		conn:        wire.New(nc),
		connectedAt: time.Now(),
	}
	log := slog.With("session", sess.id)
	log.Info("session connected")

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sub := s.bus.Subscribe()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		sub.Cancel()
		_ = sess.conn.Close()
		log.Info("session closed")
	}()

	// Either direction failing cancels the group; the closer goroutine then
	// unblocks the sibling's pending read or write.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		_ = sess.conn.Close()
		return nil
	})

	g.Go(func() error { return s.runInbound(gctx, sess, log) })
	g.Go(func() error { return runOutbound(gctx, sess, sub, log) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		log.Info("session ended", "err", err)
	}
}

func (s *Server) runInbound(ctx context.Context, sess *session, log *slog.Logger) error {
	for {
		env, err := sess.conn.ReadEnvelope()
		if err != nil {
			return err
		}
		sess.setClientID(env.ClientID)
		log.Debug("envelope received", "content", env.Content.Summary(), "origin", env.ClientID)

		select {
		case s.inbound <- Inbound{Envelope: env, Session: sess.id}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func runOutbound(ctx context.Context, sess *session, sub *hub.Subscription, log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-sub.C():
			if !ok {
				return nil
			}
			if sess.isOwn(env) {
				continue
			}
			if err := sess.conn.WriteEnvelope(env); err != nil {
				return err
			}
		}
	}
}
