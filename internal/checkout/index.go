package checkout

import (
	stderrors "errors"
	"fmt"
	"os"
	"path"
	"syscall"

	"github.com/NicabarNimble/go-gitsync/internal/lockfile"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"k8s.io/klog/v2"
)

const indexPath = "index"

// writeIndex replaces the index through index.lock. It fails immediately when
// the lock is held.
func writeIndex(repo *git.Repository, idx *index.Index) error {
	fss, ok := repo.Storer.(interface{ Filesystem() billy.Filesystem })
	if !ok {
		return repo.Storer.SetIndex(idx)
	}

	lock, err := lockfile.Acquire(fss.Filesystem(), indexPath)
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := index.NewEncoder(lock).Encode(idx); err != nil {
		_ = lock.Release()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := lock.Commit(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// removeStale deletes the files the current index tracks that are not in
// wanted, along with directories left empty. Failures are logged.
func removeStale(repo *git.Repository, fs billy.Filesystem, wanted map[string]bool) int {
	old, err := repo.Storer.Index()
	if err != nil {
		klog.V(2).Infof("no previous index: %v", err)
		return 0
	}

	removed := 0
	for _, e := range old.Entries {
		if wanted[e.Name] || !validPath(e.Name) {
			continue
		}
		if fi, err := fs.Lstat(e.Name); err == nil && fi.IsDir() {
			// replaced by a directory of the new tree
			continue
		}
		// ENOTDIR: a parent directory of the entry became a file
		if err := fs.Remove(e.Name); err != nil && !stderrors.Is(err, os.ErrNotExist) && !stderrors.Is(err, syscall.ENOTDIR) {
			klog.Warningf("failed to remove %s: %v", e.Name, err)
			continue
		}
		removed++
		klog.V(2).Infof("removed %s", e.Name)
		pruneEmptyDirs(fs, path.Dir(e.Name))
	}
	return removed
}

func pruneEmptyDirs(fs billy.Filesystem, dir string) {
	for dir != "." && dir != "/" && dir != "" {
		infos, err := fs.ReadDir(dir)
		if err != nil || len(infos) > 0 {
			return
		}
		if err := fs.Remove(dir); err != nil {
			return
		}
		dir = path.Dir(dir)
	}
}
