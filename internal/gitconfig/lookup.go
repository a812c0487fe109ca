// Package gitconfig answers single key lookups in git configuration, either
// through the git executable or by reading the files with go-git.
package gitconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
)

// Getter returns the value of one configuration key.
type Getter interface {
	Get(ctx context.Context, key string) (string, error)
}

// FindCmdTool returns the command configured for the tool of kind, such as
// "diff" or "merge": it reads <kind>.tool, then <kind>tool.<name>.cmd.
func FindCmdTool(ctx context.Context, g Getter, kind string) (string, error) {
	if kind == "" {
		return "", errors.E("gitconfig.tool", errors.InvalidParam, fmt.Errorf("empty tool kind"))
	}
	tool, err := g.Get(ctx, kind+".tool")
	if err != nil {
		return "", err
	}
	return g.Get(ctx, kind+"tool."+tool+".cmd")
}

// splitKey splits "section.sub.section.name" at the first and last dot.
func splitKey(key string) (section, subsection, name string, err error) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return "", "", "", fmt.Errorf("invalid key %q", key)
	}
	section = key[:first]
	name = key[last+1:]
	if last > first {
		subsection = key[first+1 : last]
	}
	return section, subsection, name, nil
}
