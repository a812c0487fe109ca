// Package lockfile implements git's "<path>.lock" convention: a lock is a
// file created exclusively next to its target, written, then renamed over the
// target or removed.
package lockfile

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
)

// Suffix is appended to the locked path.
const Suffix = ".lock"

// ErrLocked is returned when the lock file already exists.
var ErrLocked = stderrors.New("lock file exists")

// Lock is a held lock on Path.
type Lock struct {
	fs   billy.Filesystem
	path string
	f    billy.File
}

// Acquire creates path+".lock" in fs. It fails immediately with ErrLocked if
// another process holds the lock.
func Acquire(fs billy.Filesystem, path string) (*Lock, error) {
	lockPath := path + Suffix
	f, err := fs.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o666)
	if err != nil {
		if stderrors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, fs.Join(fs.Root(), lockPath))
		}
		return nil, fmt.Errorf("create %s: %w", lockPath, err)
	}
	return &Lock{fs: fs, path: path, f: f}, nil
}

// Path is the locked path, relative to the filesystem root.
func (l *Lock) Path() string { return l.path }

func (l *Lock) Write(p []byte) (int, error) {
	if l.f == nil {
		return 0, io.ErrClosedPipe
	}
	return l.f.Write(p)
}

// Commit closes the lock file and renames it over the locked path.
func (l *Lock) Commit() error {
	if l.f == nil {
		return io.ErrClosedPipe
	}
	err := l.f.Close()
	l.f = nil
	if err != nil {
		_ = l.fs.Remove(l.path + Suffix)
		return err
	}
	if err := l.fs.Rename(l.path+Suffix, l.path); err != nil {
		_ = l.fs.Remove(l.path + Suffix)
		return fmt.Errorf("rename %s: %w", l.path+Suffix, err)
	}
	return nil
}

// Release removes the lock file without touching the locked path. Calling it
// after Commit is a no-op.
func (l *Lock) Release() error {
	if l.f == nil {
		return nil
	}
	_ = l.f.Close()
	l.f = nil
	if err := l.fs.Remove(l.path + Suffix); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
