package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipflow/clipflow/internal/clip"
	"github.com/clipflow/clipflow/internal/ipc"
	"github.com/clipflow/clipflow/internal/syncer"
)

func newRelayCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the relay server (+ local clipboard participation)",
		Long: `Starts the clipflow relay. All connected peers share a clipboard.
By default the relay also participates with its own local clipboard; pass
--relay-only on headless hosts to forward between peers without touching any
clipboard.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runRelay(v) },
	}

	f := cmd.Flags()
	f.String("addr", "0.0.0.0:9527", "TCP listen address")
	f.Bool("relay-only", false, "forward between peers only, no local clipboard access")
	addDaemonFlags(cmd)

	return cmd
}

func runRelay(v *viper.Viper) error {
	setupLogging(v)

	relayOnly := v.GetBool("relay-only")
	slog.Info("clipflow relay starting",
		"version", Version,
		"platform", runtime.GOOS,
		"addr", v.GetString("addr"),
		"relay_only", relayOnly,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var backend clip.Backend
	if !relayOnly {
		backend = clip.New()
		defer backend.Close()
		slog.Info("clipboard backend", "name", backend.Name())
	}

	srv := syncer.NewServer(syncer.ServerConfig{
		Addr:      v.GetString("addr"),
		RelayOnly: relayOnly,
		Backend:   backend,
		Fitter:    fitterFromConfig(v),
		Poll:      v.GetDuration("poll-interval"),
		BusCap:    v.GetInt("buffer"),
	})

	serveControl(ctx, srv)

	// Bind failure is the one process-fatal condition.
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveControl starts the local control socket for copy/paste/status.
// Its absence is a warning, never fatal.
func serveControl(ctx context.Context, ctrl ipc.Control) {
	ln, err := ipc.Listen()
	if err != nil {
		slog.Warn("control socket unavailable", "err", err)
		return
	}
	slog.Info("control socket listening", "path", ipc.SocketPath())
	go ipc.Serve(ctx, ln, ctrl)
}
