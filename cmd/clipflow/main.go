// clipflow: clipboard synchronization across machines over TCP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipflow",
		Short: "Synchronize the clipboard across machines",
		Long: `clipflow keeps a clipboard value synchronized across multiple machines:
any device that changes its clipboard pushes the new value to a relay, which
fans it out to every other connected device.

Run "clipflow relay" on one host and "clipflow join --server host:9527" on
each other machine. Use --relay-only on headless relay hosts.
Use "clipflow copy/paste/status" to talk to a running daemon.

Config file search order (first found wins):
  /etc/clipflow/clipflow.toml
  $HOME/.config/clipflow/clipflow.toml
  path supplied via --config

All flags can be set via CLIPFLOW_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRelayCmd(),
		newJoinCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipflow %s\n", Version)
		},
	}
}
