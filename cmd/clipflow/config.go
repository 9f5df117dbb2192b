package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipflow/clipflow/internal/codec"
	"github.com/clipflow/clipflow/internal/logging"
	"github.com/clipflow/clipflow/internal/syncer"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPFLOW_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPFLOW_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipflow")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipflow/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipflow", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPFLOW")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addDaemonFlags adds the flags shared by the relay and join daemons.
func addDaemonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Duration("poll-interval", syncer.DefaultPollInterval, "local clipboard poll cadence")
	f.Int("max-image-bytes", codec.DefaultMaxBytes, "encoded image size ceiling in bytes")
	f.Int("max-image-dim", codec.DefaultMaxDimension, "image pixel ceiling per axis")
	f.Int("buffer", 0, "broadcast buffer per subscriber (0 = default 100)")
	f.String("log-format", "auto", "log format: auto|text|json")
	f.String("log-level", "info", "log level: debug|info|warn|error")
	addConfigFlag(cmd)
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	logging.Setup(v.GetString("log-format"), v.GetString("log-level"))
}

// fitterFromConfig builds the image codec from the shared flags.
func fitterFromConfig(v *viper.Viper) codec.Fitter {
	return codec.New(v.GetInt("max-image-bytes"), v.GetInt("max-image-dim"))
}
