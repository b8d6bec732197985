package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/adwikanair2008-hue/swim-flow/internal/state"
)

var errNoProfile = errors.New("no profile saved yet; complete onboarding first")

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of all data",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, a.Close()) }()

			snap := a.state.Snapshot()
			if snap.NeedsOnboarding() {
				return errNoProfile
			}
			data, filename, err := a.snapshots.Export(snap)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if out == "" {
				out = filename
			}
			if err := writeFile(out, data); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions to %s\n", len(snap.Sessions), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default swimflow_backup_<date>.json, - for stdout)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, a.Close()) }()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open backup: %w", err)
			}
			defer f.Close()

			snap, err := a.snapshots.Import(f)
			if err != nil {
				return err
			}
			next := a.state.Dispatch(state.ReplaceAll{Snapshot: snap})
			if _, err := a.snapshots.Save(cmd.Context(), next); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d sessions for %s\n", len(next.Sessions), next.Profile.Name)
			return nil
		},
	}
}

func newWipeCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all saved data",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if !yes {
				return errors.New("refusing to delete all data without --yes")
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, a.Close()) }()

			a.state.Dispatch(state.Reset{})
			if err := a.snapshots.Wipe(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "all data deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print a training report",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, a.Close()) }()

			snap := a.state.Snapshot()
			if snap.NeedsOnboarding() {
				return errNoProfile
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderReport(snap, time.Now()))
			return nil
		},
	}
}
