package token

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NicabarNimble/go-gitsync/internal/urlutils"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"k8s.io/klog/v2"
)

// Provider identifies the token key used for a remote host.
type Provider string

const (
	ProviderGitHub    Provider = "GITHUB"
	ProviderGitLab    Provider = "GITLAB"
	ProviderBitbucket Provider = "BITBUCKET"
)

// ProviderForHost maps a remote host to its provider key.
func ProviderForHost(host string) Provider {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	switch {
	case host == "":
		return ""
	case host == "github.com", strings.HasSuffix(host, ".github.com"):
		return ProviderGitHub
	case host == "gitlab.com", strings.HasSuffix(host, ".gitlab.com"):
		return ProviderGitLab
	case host == "bitbucket.org":
		return ProviderBitbucket
	}
	return Provider(sanitizeKey(host))
}

// DetectProvider attempts to determine the token provider from the token format
func DetectProvider(tokenValue string) Provider {
	switch {
	case strings.HasPrefix(tokenValue, "ghp_"),
		strings.HasPrefix(tokenValue, "github_pat_"):
		return ProviderGitHub
	case strings.HasPrefix(tokenValue, "glpat-"):
		return ProviderGitLab
	default:
		return ""
	}
}

func defaultUsername(p Provider) string {
	switch p {
	case ProviderGitHub:
		return "x-access-token"
	case ProviderGitLab:
		return "oauth2"
	case ProviderBitbucket:
		return "x-token-auth"
	}
	return "git"
}

// AuthFor returns HTTP basic authentication for rawURL when storage holds a
// token for its provider. It returns nil when the remote does not use HTTP
// or no token is configured, letting go-git fall back to its defaults.
func AuthFor(ctx context.Context, storage Storage, rawURL string) (transport.AuthMethod, error) {
	if storage == nil {
		return nil, nil
	}
	ep, err := urlutils.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if ep.Protocol != "http" && ep.Protocol != "https" {
		return nil, nil
	}
	if ep.User != "" && ep.Password != "" {
		// credentials embedded in the URL win
		return nil, nil
	}

	provider := ProviderForHost(ep.Host)
	tok, err := storage.Retrieve(ctx, string(provider))
	if errors.Is(err, ErrTokenNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token for %s: %w", provider, err)
	}

	user := tok.Username
	if user == "" {
		user = defaultUsername(provider)
	}
	klog.V(2).Infof("using %s token for %s", provider, ep.Host)
	return &http.BasicAuth{Username: user, Password: tok.Value}, nil
}
