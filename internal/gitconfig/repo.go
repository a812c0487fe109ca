package gitconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// RepoGetter reads the system, global and repository configuration files,
// later ones overriding earlier ones. Repo may be nil.
//
// go-git does not follow [include] and [includeIf]; a key missing from a
// configuration that uses them is reported as errors.ConfigLookupUnsupported.
type RepoGetter struct {
	Repo *git.Repository
}

func (g *RepoGetter) Get(ctx context.Context, key string) (string, error) {
	const op = "gitconfig.get"
	if err := ctx.Err(); err != nil {
		return "", errors.E(op, errors.Cancelled, err)
	}
	section, subsection, name, err := splitKey(key)
	if err != nil {
		return "", errors.E(op, errors.InvalidParam, err)
	}

	scopes, err := g.load()
	if err != nil {
		return "", errors.E(op, errors.ConfigLookup, err)
	}

	includes := false
	for i := len(scopes) - 1; i >= 0; i-- {
		if v, ok := lookup(scopes[i], section, subsection, name); ok {
			return v, nil
		}
		includes = includes || hasIncludes(scopes[i])
	}
	if includes {
		return "", errors.E(op, errors.ConfigLookupUnsupported, fmt.Errorf("key %s not found and includes are not followed", key))
	}
	return "", errors.E(op, errors.ConfigLookup, fmt.Errorf("key %s not found", key))
}

func (g *RepoGetter) load() ([]*format.Config, error) {
	var scopes []*format.Config
	for _, scope := range []config.Scope{config.SystemScope, config.GlobalScope} {
		cfg, err := config.LoadConfig(scope)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, cfg.Raw)
	}
	if g.Repo != nil {
		cfg, err := g.Repo.Config()
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, cfg.Raw)
	}
	return scopes, nil
}

// lookup returns the last value of the option. Section and option names are
// case insensitive, subsections are not.
func lookup(cfg *format.Config, section, subsection, name string) (string, bool) {
	if cfg == nil {
		return "", false
	}
	var value string
	found := false
	for _, s := range cfg.Sections {
		if !strings.EqualFold(s.Name, section) {
			continue
		}
		opts := s.Options
		if subsection != "" {
			opts = nil
			for _, ss := range s.Subsections {
				if ss.Name == subsection {
					opts = append(opts, ss.Options...)
				}
			}
		}
		for _, o := range opts {
			if strings.EqualFold(o.Key, name) {
				value, found = o.Value, true
			}
		}
	}
	return value, found
}

func hasIncludes(cfg *format.Config) bool {
	if cfg == nil {
		return false
	}
	for _, s := range cfg.Sections {
		if strings.EqualFold(s.Name, "include") || strings.EqualFold(s.Name, "includeIf") {
			return true
		}
	}
	return false
}
