// Package session maintains one logical client connection to the relay,
// transparently reconnecting, and carries bidirectional envelope traffic
// between the local sync loops and the wire.
//
// The state machine is Disconnected → Connecting → Connected → Disconnected,
// looping forever with a fixed backoff. There is no retry ceiling; the
// client never gives up.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/hub"
	"github.com/clipflow/clipflow/internal/wire"
)

const (
	// ReconnectBackoff is the fixed wait after any connection failure.
	ReconnectBackoff = 5 * time.Second

	dialTimeout = 10 * time.Second
)

// Client keeps one connection to the relay alive.
type Client struct {
	addr     string
	clientID string
	outgoing *hub.Bus
	incoming chan<- content.Envelope
	backoff  time.Duration
}

// New builds a Client for the relay at addr. Locally produced envelopes are
// drained from outgoing; envelopes received from the relay are delivered to
// incoming for the orchestrator's apply loop.
func New(addr, clientID string, outgoing *hub.Bus, incoming chan<- content.Envelope) *Client {
	return &Client{
		addr:     addr,
		clientID: clientID,
		outgoing: outgoing,
		incoming: incoming,
		backoff:  ReconnectBackoff,
	}
}

// Run loops forever: dial, run one session until either direction fails,
// back off, retry. Returns only when ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	log := slog.With("relay", c.addr)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info("connecting")
		d := net.Dialer{Timeout: dialTimeout}
		nc, err := d.DialContext(ctx, "tcp", c.addr)
		if err != nil {
			log.Warn("connection failed", "err", err, "retry_in", c.backoff)
			if err := sleep(ctx, c.backoff); err != nil {
				return err
			}
			continue
		}

		log.Info("connected")
		err = c.runSession(ctx, nc)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("disconnected, reconnecting", "err", err, "retry_in", c.backoff)
		if err := sleep(ctx, c.backoff); err != nil {
			return err
		}
	}
}

// runSession runs the two directions of one connection until either fails.
// A fresh bus subscription is taken per attempt: envelopes produced while
// disconnected are intentionally dropped, not replayed — the session sends
// current state, it does not guarantee delivery.
func (c *Client) runSession(ctx context.Context, nc net.Conn) error {
	conn := wire.New(nc)
	defer conn.Close()

	sub := c.outgoing.Subscribe()
	defer sub.Cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})

	// Inbound: relay → local apply queue.
	g.Go(func() error {
		for {
			env, err := conn.ReadEnvelope()
			if err != nil {
				return err
			}
			select {
			case c.incoming <- env:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Outbound: local capture queue → relay.
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case env, ok := <-sub.C():
				if !ok {
					return nil
				}
				if err := conn.WriteEnvelope(env); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, io.EOF) {
		return errors.New("relay closed connection")
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
