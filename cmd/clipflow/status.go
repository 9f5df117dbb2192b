package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipflow/clipflow/internal/ipc"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show connected sessions and the latest synced content",
		Long: `Queries a running clipflow daemon over its control socket and prints
the connected session roster (relay role) and the most recent synced value.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error { return runStatus(jsonOut) },
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")

	return cmd
}

func runStatus(jsonOut bool) error {
	resp, err := ipc.Call(ipc.Request{Op: ipc.OpStatus})
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Envelope != nil {
		ts := time.Unix(int64(resp.Envelope.Timestamp), 0).Format(time.RFC3339)
		origin := resp.Envelope.ClientID
		if origin == "" {
			origin = "relay"
		}
		fmt.Printf("latest: %s from %s at %s\n", resp.Envelope.Content.Summary(), origin, ts)
	} else {
		fmt.Println("latest: (nothing synced yet)")
	}

	if len(resp.Sessions) == 0 {
		fmt.Println("sessions: none")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDR\tCLIENT ID\tCONNECTED")
	for _, s := range resp.Sessions {
		id := s.ClientID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Addr, id, s.ConnectedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
