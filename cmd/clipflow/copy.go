package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipflow/clipflow/internal/ipc"
)

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin into the synced clipboard (like pbcopy)",
		Long: `Reads stdin and injects it into the clipboard sync via the control
socket of a running clipflow daemon (relay or join).`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error { return runCopy() },
	}
}

func runCopy() error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	_, err = ipc.Call(ipc.Request{Op: ipc.OpCopy, Text: string(data)})
	return err
}
