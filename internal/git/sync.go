package git

import (
	"context"
	"path/filepath"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/progress"
	"github.com/NicabarNimble/go-gitsync/internal/urlutils"
	"k8s.io/klog/v2"
)

// Synchronizer brings destinations to a remote revision with one backend.
type Synchronizer struct {
	backend Backend

	// Tracker, when set, is started and finished around each call.
	Tracker progress.Tracker
}

// NewSynchronizer returns a Synchronizer using backend that records the last
// operation in a progress.DefaultTracker.
func NewSynchronizer(backend Backend) *Synchronizer {
	return &Synchronizer{backend: backend, Tracker: &progress.DefaultTracker{}}
}

// Backend returns the backend in use.
func (s *Synchronizer) Backend() Backend { return s.backend }

// Synchronize makes dst a checkout of rev from url. Failures are returned as
// *errors.SyncError.
func (s *Synchronizer) Synchronize(ctx context.Context, dst, url, rev string) error {
	syncErr := func(err error) error {
		return &errors.SyncError{
			Destination: dst,
			URL:         urlutils.Redact(url),
			Revision:    rev,
			Backend:     s.backend.Name(),
			Err:         err,
		}
	}

	abs, err := filepath.Abs(dst)
	if err != nil {
		return syncErr(errors.E("destination", errors.IO, err))
	}
	dst = abs

	if s.Tracker != nil {
		s.Tracker.Start("Sync " + dst)
	}
	klog.V(1).Infof("synchronizing %s with %s@%s using %s", dst, urlutils.Redact(url), rev, s.backend.Name())

	if err := s.backend.Retrieve(ctx, Request{Destination: dst, URL: url, Revision: rev}); err != nil {
		err = syncErr(err)
		if s.Tracker != nil {
			s.Tracker.Error(err)
		}
		return err
	}
	if s.Tracker != nil {
		s.Tracker.Complete()
	}
	return nil
}

// FindCmdTool returns the configured command of the tool of kind.
func (s *Synchronizer) FindCmdTool(ctx context.Context, kind string) (string, error) {
	return s.backend.FindCmdTool(ctx, kind)
}
