package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newToolCmd() *cobra.Command {
	opts := &backendOptions{}

	cmd := &cobra.Command{
		Use:   "tool <kind>",
		Short: "Print the command configured for a diff or merge tool",
		Long: `Print the command of the tool configured for kind, read from <kind>.tool and
<kind>tool.<name>.cmd in the git configuration.`,
		Example: `  gitsync tool diff
  gitsync tool merge --backend cli`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSynchronizer(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			tool, err := s.FindCmdTool(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tool)
			return nil
		},
	}

	opts.addFlags(cmd.Flags())

	return cmd
}
