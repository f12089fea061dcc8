package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Testlib/programtest"
)

func newKeysCmd() *cobra.Command {
	var (
		count int
		seed  uint64
		bytes bool
	)

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Print deterministic keypairs",
		Long: `Print the first keypairs of a deterministic generator.

The K-th keypair of a seed is the same on every run, so the output can be
pasted into test fixtures.

Examples:
  # The first three keypairs a test context hands out
  fixtures keys --count 3

  # Full key bytes of an independent stream
  fixtures keys --seed 7 --bytes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}

			gen := programtest.NewDeterministicKeypairGenFromSeed(seed)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPUBLIC KEY")

			for i := 1; i <= count; i++ {
				kp := gen.NewKeypair()
				fmt.Fprintf(w, "%d\t%s\n", i, kp.PublicKey())

				if bytes {
					fmt.Fprintf(w, "\t%v\n", []byte(kp))
				}
			}

			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of keypairs to print")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Generator seed")
	cmd.Flags().BoolVar(&bytes, "bytes", false, "Also print the 64 keypair bytes")

	return cmd
}
