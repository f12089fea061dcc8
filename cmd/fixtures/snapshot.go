package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Testlib/ledger"
)

func newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <file>",
		Short: "List the accounts in a session snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}

			snap, err := ledger.DecodeSnapshot(data)
			if err != nil {
				return fmt.Errorf("failed to decode snapshot: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "slot %d, %d accounts\n\n", snap.Slot, len(snap.Accounts))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tLAMPORTS\tDATA\tOWNER\tEXEC")
			for _, entry := range snap.Accounts {
				acc := entry.Account
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%t\n", entry.Key, acc.Lamports, len(acc.Data), acc.Owner, acc.Executable)
			}

			return w.Flush()
		},
	}
}
