package main

import (
	stderrors "errors"
	"fmt"

	"github.com/NicabarNimble/go-gitsync/internal/config"
	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

type applyOptions struct {
	backendOptions
	configFile string
}

func newApplyCmd() *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Synchronize every target of a configuration file",
		Long: `Synchronize the targets listed in the configuration file one after another.
A failing target does not stop the others; the command fails if any target failed.
The backend and git executable come from the file unless given as flags.`,
		Example: `  gitsync apply
  gitsync apply --config ci/gitsync.yaml --backend cli`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", defaultConfigFile, "Configuration file path")
	opts.addFlags(cmd.Flags())

	return cmd
}

func runApply(cmd *cobra.Command, opts *applyOptions) error {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets in %s", opts.configFile)
	}
	if !cmd.Flags().Changed("backend") {
		opts.backend = cfg.Backend
	}
	if !cmd.Flags().Changed("git") {
		opts.git = cfg.Git
	}

	s, err := newSynchronizer(&opts.backendOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var errs []error
	for _, t := range cfg.Targets {
		if err := s.Synchronize(cmd.Context(), t.Destination, t.URL, t.Revision); err != nil {
			// anything but a failed target ends the run
			if !errors.IsSyncError(err) {
				return err
			}
			klog.Errorf("%v", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "Failed %s\n", t.Destination)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Synchronized %s\n", t.Destination)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d targets failed: %w", len(errs), len(cfg.Targets), stderrors.Join(errs...))
	}
	return nil
}
