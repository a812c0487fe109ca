package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type syncOptions struct {
	backendOptions
	revision string
}

func newSyncCmd() *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync <destination> <url>",
		Short: "Clone or update one destination",
		Long: `Clone url into destination, or fetch it when destination already holds a
repository, then check out the requested revision, discarding local changes.
Without --rev the remote HEAD is used.`,
		Example: `  gitsync sync ./templates/default https://github.com/ffizer/template_sample.git --rev 1.1.0
  gitsync sync /srv/mirror git@github.com:owner/repo.git --backend cli`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.revision, "rev", "", "Branch, tag or commit to check out")
	opts.addFlags(cmd.Flags())

	return cmd
}

func runSync(cmd *cobra.Command, opts *syncOptions, dst, url string) error {
	s, err := newSynchronizer(&opts.backendOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := s.Synchronize(cmd.Context(), dst, url, opts.revision); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synchronized %s\n", dst)
	return nil
}
