package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Testlib/internal/config"
	"Testlib/programs"
	"Testlib/programtest"
)

func newProgramsCmd() *cobra.Command {
	var (
		configPath string
		set        string
	)

	cmd := &cobra.Command{
		Use:   "programs",
		Short: "Print the programs a test context deploys",
		Long: `Print the program table a test context deploys, after applying the
[[program]] entries of a config file.

Without --config the file named by PROGRAMTEST_CONFIG is used, if any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg *config.Config
				err error
			)
			if configPath != "" {
				cfg, err = config.Load(configPath)
			} else {
				cfg, err = config.FromEnv()
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			regs, ok := programs.Set(set)
			if !ok {
				return fmt.Errorf("unknown program set %q (want one of %s)", set, strings.Join(programs.SetNames(), ", "))
			}

			resolved, err := programtest.ResolvePrograms(regs, cfg.Programs)
			if err != nil {
				return fmt.Errorf("failed to resolve programs: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROGRAM ID\tLOADER")
			for _, reg := range resolved {
				loader := "native"
				if reg.Artifact {
					loader = "artifact"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", reg.Name, reg.ID, loader)
			}

			if len(cfg.Session.ArtifactDirs) > 0 {
				fmt.Fprintf(w, "\nartifact dirs: %v\n", cfg.Session.ArtifactDirs)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	cmd.Flags().StringVar(&set, "set", "default", "Program set: "+strings.Join(programs.SetNames(), " or "))

	return cmd
}
