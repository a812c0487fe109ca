package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"

	"github.com/NicabarNimble/go-gitsync/internal/token"
	"github.com/NicabarNimble/go-gitsync/internal/urlutils"
	"github.com/spf13/cobra"
)

// newTokenCmd reports which tokens fetches will use. Values are never
// printed.
func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect the tokens used for HTTP remotes",
		Long: `Tokens are read from GIT_TOKEN_<PROVIDER> environment variables, where the
provider is derived from the host of the remote: GITHUB, GITLAB, BITBUCKET or the
host name itself.`,
	}

	cmd.AddCommand(newTokenCheckCmd(token.NewEnvStorage()), newTokenListCmd(token.NewEnvStorage()))
	return cmd
}

func newTokenCheckCmd(storage token.Storage) *cobra.Command {
	return &cobra.Command{
		Use:     "check <url>",
		Short:   "Show the token variable consulted for a remote",
		Example: `  gitsync token check https://github.com/owner/repo.git`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkToken(cmd, storage, args[0])
		},
	}
}

func checkToken(cmd *cobra.Command, storage token.Storage, rawURL string) error {
	ep, err := urlutils.Parse(rawURL)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if ep.Protocol != "http" && ep.Protocol != "https" {
		fmt.Fprintf(out, "%s remotes do not use tokens\n", ep.Protocol)
		return nil
	}

	provider := token.ProviderForHost(ep.Host)
	fmt.Fprintf(out, "Provider: %s\n", provider)
	fmt.Fprintf(out, "Variable: %s\n", token.FormatEnvKey(string(provider)))

	tok, err := storage.Retrieve(cmd.Context(), string(provider))
	switch {
	case stderrors.Is(err, token.ErrTokenNotFound):
		fmt.Fprintln(out, "Status: not set")
		return nil
	case stderrors.Is(err, token.ErrTokenExpired):
		fmt.Fprintln(out, "Status: expired")
		return nil
	case err != nil:
		return err
	}
	printTokenStatus(out, provider, tok)
	return nil
}

func printTokenStatus(out io.Writer, provider token.Provider, tok token.Token) {
	if tok.ExpiresAt.IsZero() {
		fmt.Fprintln(out, "Status: set")
	} else {
		fmt.Fprintf(out, "Status: set, expires on %s\n", tok.ExpiresAt.Format("2006-01-02"))
	}
	if detected := token.DetectProvider(tok.Value); detected != "" && detected != provider {
		fmt.Fprintf(out, "Warning: the token looks like a %s token\n", detected)
	}
}

func newTokenListCmd(storage token.Storage) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the providers that have a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := storage.List(cmd.Context())
			if err != nil {
				return err
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
