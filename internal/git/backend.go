package git

import (
	"context"
	"fmt"
	"io"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/process"
	"github.com/NicabarNimble/go-gitsync/internal/progress"
	"github.com/NicabarNimble/go-gitsync/internal/token"
)

const (
	BackendCLI      = "cli"
	BackendPlumbing = "plumbing"
)

// Request describes one synchronization.
type Request struct {
	Destination string
	URL         string
	// Revision is a branch, tag or commit id. Empty means the remote HEAD.
	Revision string
}

// Backend retrieves a revision into a destination.
type Backend interface {
	Name() string
	Retrieve(ctx context.Context, req Request) error
	FindCmdTool(ctx context.Context, kind string) (string, error)
}

// Options configure the backend built by NewBackend. Fields a backend does
// not use are ignored.
type Options struct {
	// Git is the executable used by the CLI backend, "git" by default.
	Git    string
	Runner process.Runner

	Tokens   token.Storage
	Progress progress.Sink
	Sideband io.Writer
}

// NewBackend returns the backend called name.
func NewBackend(name string, opts Options) (Backend, error) {
	switch name {
	case BackendCLI:
		return NewCLI(opts.Git, opts.Runner), nil
	case BackendPlumbing, "":
		return &Plumbing{Tokens: opts.Tokens, Progress: opts.Progress, Sideband: opts.Sideband}, nil
	}
	return nil, errors.E("git.backend", errors.InvalidParam, fmt.Errorf("unknown backend %q", name))
}
