// Command fixtures prints deterministic test fixtures: keypairs, the program
// table a test context deploys, and the contents of session snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Testlib/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fixtures",
		Short:         "Inspect deterministic program-test fixtures",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init()
		},
	}

	rootCmd.AddCommand(
		newKeysCmd(),
		newProgramsCmd(),
		newSnapshotCmd(),
	)

	return rootCmd
}
