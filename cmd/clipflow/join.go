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
	"github.com/clipflow/clipflow/internal/syncer"
)

func newJoinCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Connect to a relay and sync the local clipboard",
		Long: `Connects to a clipflow relay and keeps the local system clipboard in
sync with all other connected peers. Reconnects automatically on disconnect
and never gives up.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runJoin(v) },
	}

	f := cmd.Flags()
	f.String("server", "", "relay address (host:port)")
	f.String("listen", "0.0.0.0:9528", "local listen address (reserved, unused by the protocol)")
	_ = cmd.MarkFlagRequired("server")
	addDaemonFlags(cmd)

	return cmd
}

func runJoin(v *viper.Viper) error {
	setupLogging(v)

	slog.Info("clipflow peer starting",
		"version", Version,
		"platform", runtime.GOOS,
		"relay", v.GetString("server"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := clip.New()
	defer backend.Close()
	slog.Info("clipboard backend", "name", backend.Name())

	peer := syncer.NewPeer(syncer.PeerConfig{
		Relay:   v.GetString("server"),
		Backend: backend,
		Fitter:  fitterFromConfig(v),
		Poll:    v.GetDuration("poll-interval"),
		BusCap:  v.GetInt("buffer"),
	})

	serveControl(ctx, peer)

	if err := peer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
