package syncer

import (
	"context"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipflow/clipflow/internal/clip"
	"github.com/clipflow/clipflow/internal/codec"
	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/hub"
	"github.com/clipflow/clipflow/internal/relay"
)

// ServerConfig configures the relay-role orchestrator.
type ServerConfig struct {
	Addr      string
	RelayOnly bool
	Backend   clip.Backend // ignored when RelayOnly
	Fitter    codec.Fitter
	Poll      time.Duration
	BusCap    int
}

// Server is the relay-role orchestrator: it runs the relay listener and, in
// normal mode, participates with the local clipboard (captures tagged with
// no origin, inbound envelopes applied locally). In relay-only mode both
// clipboard loops are skipped and the server only forwards.
type Server struct {
	cfg      ServerConfig
	eng      *engine
	srv      *relay.Server
	bus      *hub.Bus
	inbound  chan relay.Inbound
	injectCh chan content.Content
}

// NewServer builds the server role. Run must still be called; the control
// surface (Latest, Sessions, Inject) is usable immediately.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		cfg:      cfg,
		eng:      newEngine(cfg.Backend, cfg.Fitter, cfg.Poll),
		bus:      hub.New(cfg.BusCap),
		inbound:  make(chan relay.Inbound, 128),
		injectCh: make(chan content.Content, 8),
	}
	s.srv = relay.New(cfg.Addr, s.bus, s.inbound)
	return s
}

// Run blocks until ctx is cancelled or the listener fails to bind.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.srv.Run(gctx) })
	g.Go(func() error { return s.dispatch(gctx) })
	return g.Wait()
}

// dispatch is the single-threaded loop that owns the backend handle.
func (s *Server) dispatch(ctx context.Context) error {
	var tick <-chan time.Time
	if !s.cfg.RelayOnly {
		t := time.NewTicker(s.eng.poll)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-tick:
			if c := s.eng.capture(); c != nil {
				s.publish(content.NewEnvelope(c, ""))
			}

		case in := <-s.inbound:
			// Fan out to every other session, origin preserved.
			s.bus.Publish(in.Envelope)
			s.eng.remember(in.Envelope)
			if !s.cfg.RelayOnly {
				s.eng.apply(in.Envelope)
			}

		case c := <-s.injectCh:
			env := content.NewEnvelope(c, "")
			s.publish(env)
			if !s.cfg.RelayOnly {
				s.eng.apply(env)
			}
		}
	}
}

func (s *Server) publish(env content.Envelope) {
	s.bus.Publish(env)
	s.eng.remember(env)
}

// Addr returns the relay's bound listen address, nil before Run binds it.
func (s *Server) Addr() net.Addr { return s.srv.Addr() }

// Latest returns the newest synced envelope for the control channel.
func (s *Server) Latest() (content.Envelope, bool) { return s.eng.Latest() }

// Sessions returns the connected session roster.
func (s *Server) Sessions() []relay.SessionInfo { return s.srv.Sessions() }

// Inject feeds locally supplied content (the copy command) into the sync as
// if it had been captured from the relay's clipboard.
func (s *Server) Inject(ctx context.Context, c content.Content) error {
	return send(ctx, s.injectCh, c)
}
