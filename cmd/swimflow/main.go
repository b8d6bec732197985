package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "swimflow",
		Short:         "Swim training log, analytics and AI coaching",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep all data in memory only")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(newWipeCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	return root
}
