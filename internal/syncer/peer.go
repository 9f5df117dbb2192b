package syncer

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipflow/clipflow/internal/clip"
	"github.com/clipflow/clipflow/internal/codec"
	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/hub"
	"github.com/clipflow/clipflow/internal/relay"
	"github.com/clipflow/clipflow/internal/session"
)

// PeerConfig configures the client-role orchestrator.
type PeerConfig struct {
	Relay   string
	Backend clip.Backend
	Fitter  codec.Fitter
	Poll    time.Duration
	BusCap  int
}

// Peer is the client-role orchestrator: it keeps a session to the relay
// alive, publishes local captures to the session's outgoing queue, and
// applies received envelopes after suppressing its own echoes.
type Peer struct {
	cfg      PeerConfig
	clientID string
	eng      *engine
	outgoing *hub.Bus
	incoming chan content.Envelope
	injectCh chan content.Content
	cli      *session.Client
}

// NewPeer builds the client role with a fresh process-lifetime identity.
func NewPeer(cfg PeerConfig) *Peer {
	p := &Peer{
		cfg:      cfg,
		clientID: content.NewClientID(),
		eng:      newEngine(cfg.Backend, cfg.Fitter, cfg.Poll),
		outgoing: hub.New(cfg.BusCap),
		incoming: make(chan content.Envelope, 128),
		injectCh: make(chan content.Content, 8),
	}
	p.cli = session.New(cfg.Relay, p.clientID, p.outgoing, p.incoming)
	return p
}

// ClientID returns this process's identity, used for echo suppression.
func (p *Peer) ClientID() string { return p.clientID }

// Run blocks until ctx is cancelled. Connection failures are retried
// forever; they never propagate out.
func (p *Peer) Run(ctx context.Context) error {
	slog.Info("peer starting", "client_id", p.clientID, "relay", p.cfg.Relay)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.cli.Run(gctx) })
	g.Go(func() error { return p.dispatch(gctx) })
	return g.Wait()
}

// dispatch is the single-threaded loop that owns the backend handle.
func (p *Peer) dispatch(ctx context.Context) error {
	t := time.NewTicker(p.eng.poll)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-t.C:
			if c := p.eng.capture(); c != nil {
				p.publish(c)
			}

		case env := <-p.incoming:
			// Echo suppression: never re-apply our own content.
			if env.ClientID == p.clientID {
				slog.Debug("own envelope discarded")
				continue
			}
			p.eng.remember(env)
			p.eng.apply(env)

		case c := <-p.injectCh:
			p.publish(c)
			p.eng.apply(content.NewEnvelope(c, p.clientID))
		}
	}
}

func (p *Peer) publish(c content.Content) {
	env := content.NewEnvelope(c, p.clientID)
	p.outgoing.Publish(env)
	p.eng.remember(env)
}

// Latest returns the newest synced envelope for the control channel.
func (p *Peer) Latest() (content.Envelope, bool) { return p.eng.Latest() }

// Sessions returns nil; only the relay role has a session roster.
func (p *Peer) Sessions() []relay.SessionInfo { return nil }

// Inject feeds locally supplied content (the copy command) into the sync.
func (p *Peer) Inject(ctx context.Context, c content.Content) error {
	return send(ctx, p.injectCh, c)
}
