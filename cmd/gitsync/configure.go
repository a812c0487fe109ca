package main

import (
	"fmt"

	"github.com/NicabarNimble/go-gitsync/internal/config"
	"github.com/spf13/cobra"
)

const defaultConfigFile = ".gitsync.yaml"

type configureOptions struct {
	destination string
	url         string
	revision    string
	backend     string
	git         string
	configFile  string
}

func newConfigureCmd() *cobra.Command {
	opts := &configureOptions{}

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Update sync settings",
		Long: `Update the configuration file used by apply. A target is added, or replaced
when one with the same destination exists; the backend and git executable can be set too.`,
		Example: `  gitsync configure --dest ./templates/default --url https://github.com/ffizer/template_sample.git --rev 1.1.0
  gitsync configure --backend cli --git /usr/local/bin/git`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.destination, "dest", "", "Destination directory of the target")
	cmd.Flags().StringVar(&opts.url, "url", "", "Remote URL of the target")
	cmd.Flags().StringVar(&opts.revision, "rev", "", "Revision of the target, remote HEAD when empty")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Backend to use (cli or plumbing)")
	cmd.Flags().StringVar(&opts.git, "git", "", "Git executable used by the cli backend")
	cmd.Flags().StringVar(&opts.configFile, "config", defaultConfigFile, "Configuration file path")
	cmd.MarkFlagsRequiredTogether("dest", "url")

	return cmd
}

func updateConfig(cmd *cobra.Command, opts *configureOptions) error {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}

	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.git != "" {
		cfg.Git = opts.git
	}
	if opts.destination != "" {
		target := config.Target{Destination: opts.destination, URL: opts.url, Revision: opts.revision}
		if err := cfg.AddTarget(target); err != nil {
			return fmt.Errorf("invalid target: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.SaveConfig(cfg, opts.configFile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration updated in %s\n", opts.configFile)
	return nil
}
