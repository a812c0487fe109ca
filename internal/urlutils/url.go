// Package urlutils parses remote repository URLs and strips credentials from
// them before they are logged or returned in errors.
package urlutils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

var (
	// ErrInvalidURL indicates that the provided URL is not valid
	ErrInvalidURL = errors.New("invalid URL format")
)

// Parse validates rawURL as a git remote. It accepts every form git does:
//   - https://github.com/owner/repo.git
//   - ssh://git@host/owner/repo.git and git@host:owner/repo.git
//   - git://host/repo, file:///path/to/repo and plain local paths
func Parse(rawURL string) (*transport.Endpoint, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}
	ep, err := transport.NewEndpoint(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if ep.Protocol != "file" && ep.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, Redact(rawURL))
	}
	return ep, nil
}

// Host returns the host name of rawURL, or an empty string for local paths
// and unparseable input.
func Host(rawURL string) string {
	ep, err := Parse(rawURL)
	if err != nil {
		return ""
	}
	return ep.Host
}

// Redact removes credentials from rawURL. HTTP URLs lose their whole user
// info since tokens are often passed as the user name; other schemes keep
// the user name.
func Redact(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	switch u.Scheme {
	case "http", "https":
		u.User = nil
	default:
		u.User = url.User(u.User.Username())
	}
	return u.String()
}

// SameRemote reports whether a and b name the same repository, ignoring
// credentials, a trailing slash and a ".git" suffix.
func SameRemote(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(rawURL string) string {
	s := strings.TrimSuffix(Redact(rawURL), "/")
	return strings.TrimSuffix(s, ".git")
}
