package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipflow/clipflow/internal/content"
	"github.com/clipflow/clipflow/internal/ipc"
)

func newPasteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paste",
		Short: "Print the latest synced clipboard value (like pbpaste)",
		Args:  cobra.NoArgs,
		RunE:  func(_ *cobra.Command, _ []string) error { return runPaste() },
	}
}

func runPaste() error {
	resp, err := ipc.Call(ipc.Request{Op: ipc.OpPaste})
	if err != nil {
		return err
	}
	if resp.Envelope == nil {
		return nil
	}

	switch c := resp.Envelope.Content.(type) {
	case content.Text:
		_, err = os.Stdout.WriteString(c.Text)
	case content.HTML:
		_, err = os.Stdout.WriteString(c.Text)
	case content.Image:
		err = fmt.Errorf("latest synced content is an %s; text paste only", c.Summary())
	}
	return err
}
