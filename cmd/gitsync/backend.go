package main

import (
	"io"

	"github.com/NicabarNimble/go-gitsync/internal/git"
	"github.com/NicabarNimble/go-gitsync/internal/process"
	"github.com/NicabarNimble/go-gitsync/internal/progress"
	"github.com/NicabarNimble/go-gitsync/internal/token"
	"github.com/spf13/pflag"
)

// backendOptions select and configure the synchronization backend.
type backendOptions struct {
	backend  string
	git      string
	progress bool
}

func (o *backendOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.backend, "backend", git.BackendPlumbing, "Backend to use (cli or plumbing)")
	fs.StringVar(&o.git, "git", "git", "Git executable used by the cli backend")
	fs.BoolVar(&o.progress, "progress", false, "Report progress on standard error")
}

// newSynchronizer builds a synchronizer writing progress to w.
func newSynchronizer(opts *backendOptions, w io.Writer) (*git.Synchronizer, error) {
	runner := process.NewExecRunner()
	backendOpts := git.Options{
		Git:    opts.git,
		Runner: runner,
		Tokens: token.NewEnvStorage(),
	}

	var tracker progress.Tracker
	if opts.progress {
		tracker = progress.NewConsoleTracker(w)
		transfer := progress.NewWriter("  ", w)
		runner.Verbose = true
		runner.Stdout, runner.Stderr = w, transfer
		backendOpts.Progress = progress.TrackerSink(tracker)
		backendOpts.Sideband = transfer
	}

	backend, err := git.NewBackend(opts.backend, backendOpts)
	if err != nil {
		return nil, err
	}
	s := git.NewSynchronizer(backend)
	s.Tracker = tracker
	return s, nil
}
