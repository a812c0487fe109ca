package git

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"k8s.io/klog/v2"
)

// destinationExists reports whether dst is a directory with at least one
// entry. An empty directory is cloned into.
func destinationExists(dst string) (bool, error) {
	const op = "destination"
	fi, err := os.Stat(dst)
	if stderrors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.E(op, errors.IO, err)
	}
	if !fi.IsDir() {
		return false, errors.E(op, errors.IO, fmt.Errorf("%s is not a directory", dst))
	}
	entries, err := os.ReadDir(dst)
	if err != nil {
		return false, errors.E(op, errors.IO, err)
	}
	return len(entries) > 0, nil
}

// prepareParent creates the parent directories of dst and returns the
// parent.
func prepareParent(dst string) (string, error) {
	const op = "destination"
	parent := filepath.Dir(dst)
	if parent == dst {
		return "", errors.E(op, errors.MissingParent, fmt.Errorf("%s has no parent directory", dst))
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", errors.E(op, errors.IO, err)
	}
	return parent, nil
}

// cleanup undoes a failed clone: dst is removed when this call created it,
// otherwise only emptied again.
func cleanup(dst string, created bool) {
	if created {
		if err := os.RemoveAll(dst); err != nil {
			klog.Warningf("failed to remove %s: %v", dst, err)
		}
		return
	}
	entries, err := os.ReadDir(dst)
	if err != nil {
		return
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dst, e.Name())); err != nil {
			klog.Warningf("failed to remove %s: %v", filepath.Join(dst, e.Name()), err)
		}
	}
}
