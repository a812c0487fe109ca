package gitconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/process"
)

// CLIGetter runs `git config <key>`.
type CLIGetter struct {
	Runner process.Runner
	Git    string // defaults to "git"
	Dir    string
}

func (g *CLIGetter) Get(ctx context.Context, key string) (string, error) {
	const op = "gitconfig.get"
	git := g.Git
	if git == "" {
		git = "git"
	}
	res, err := g.Runner.Run(ctx, g.Dir, git, "config", key)
	if err != nil {
		if errors.IsKind(err, errors.ProcessExit) {
			return "", errors.E(op, errors.ConfigLookup, fmt.Errorf("key %s: %w", key, err))
		}
		return "", errors.New(op, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}
