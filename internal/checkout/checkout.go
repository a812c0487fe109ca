// Package checkout materializes the tree of HEAD into the worktree and
// rewrites the index to match it.
package checkout

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/progress"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"k8s.io/klog/v2"
)

var (
	ErrNoWorktree    = stderrors.New("repository has no worktree")
	ErrObjectMissing = stderrors.New("object missing from object database")
)

// Options configure a checkout.
type Options struct {
	Progress progress.Sink
}

// Result summarizes a checkout.
type Result struct {
	Commit  plumbing.Hash
	Files   int64
	Bytes   int64
	Removed int
}

type entry struct {
	path string
	*object.TreeEntry
}

// Checkout writes every entry of the tree HEAD resolves to, removes files the
// previous index tracked that the tree no longer has, then replaces the
// index. An unborn HEAD is a no-op. Cancellation is checked before each
// entry; files already written stay and the index is left untouched.
func Checkout(ctx context.Context, repo *git.Repository, opts Options) (Result, error) {
	const op = "checkout"
	var res Result

	wt, err := repo.Worktree()
	if err != nil {
		if stderrors.Is(err, git.ErrIsBareRepository) {
			err = ErrNoWorktree
		}
		return res, errors.E(op, errors.CheckoutPrep, err)
	}

	head, err := repo.Head()
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		klog.V(1).Infof("HEAD is unborn, nothing to check out")
		return res, nil
	}
	if err != nil {
		return res, errors.E(op, errors.CheckoutPrep, fmt.Errorf("resolve HEAD: %w", err))
	}

	commit, err := peelToCommit(repo, head.Hash())
	if err != nil {
		return res, errors.E(op, errors.CheckoutPrep, err)
	}
	res.Commit = commit.Hash
	tree, err := commit.Tree()
	if err != nil {
		return res, errors.E(op, errors.CheckoutPrep, fmt.Errorf("tree of %s: %w: %v", commit.Hash, ErrObjectMissing, err))
	}

	entries, err := collect(tree)
	if err != nil {
		return res, errors.E(op, errors.CheckoutPrep, err)
	}
	total := int64(len(entries))
	klog.V(1).Infof("checking out %d entries of %s", total, commit.Hash)

	idx := &index.Index{Version: 2}
	wanted := make(map[string]bool, len(entries))
	fs := wt.Filesystem
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, errors.E(op, errors.Cancelled, err)
		}
		ie, n, err := materialize(repo, fs, e)
		if err != nil {
			return res, errors.E(op, errors.Checkout, fmt.Errorf("%s: %w", e.path, err))
		}
		wanted[e.path] = true
		idx.Entries = append(idx.Entries, ie)
		res.Files++
		res.Bytes += n
		opts.Progress.Emit(progress.Event{Files: res.Files, TotalFiles: total, Bytes: res.Bytes})
	}

	res.Removed = removeStale(repo, fs, wanted)

	sort.Slice(idx.Entries, func(i, j int) bool { return idx.Entries[i].Name < idx.Entries[j].Name })
	if err := writeIndex(repo, idx); err != nil {
		return res, errors.E(op, errors.Checkout, err)
	}
	return res, nil
}

func peelToCommit(repo *git.Repository, h plumbing.Hash) (*object.Commit, error) {
	obj, err := repo.Object(plumbing.AnyObject, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrObjectMissing, h, err)
	}
	switch o := obj.(type) {
	case *object.Commit:
		return o, nil
	case *object.Tag:
		c, err := o.Commit()
		if err != nil {
			return nil, fmt.Errorf("peel tag %s: %w", h, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("HEAD points at a %s, not a commit", obj.Type())
}

// collect lists the non-tree entries of tree, expanding subtrees.
func collect(tree *object.Tree) ([]entry, error) {
	w := object.NewTreeWalker(tree, true, nil)
	defer w.Close()

	var entries []entry
	for {
		name, te, err := w.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walk tree %s: %w", tree.Hash, err)
		}
		if te.Mode == filemode.Dir {
			continue
		}
		if !validPath(name) {
			klog.Warningf("skipping unsafe path %q", name)
			continue
		}
		entries = append(entries, entry{path: name, TreeEntry: &te})
	}
	return entries, nil
}

func validPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") {
		return false
	}
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." || part == ".." || strings.EqualFold(part, git.GitDirName) {
			return false
		}
	}
	return true
}

func materialize(repo *git.Repository, fs billy.Filesystem, e entry) (*index.Entry, int64, error) {
	if dir := path.Dir(e.path); dir != "." {
		if err := clearParents(fs, dir); err != nil {
			return nil, 0, err
		}
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, 0, err
		}
	}
	if err := clearPath(fs, e.path); err != nil {
		return nil, 0, err
	}

	var n int64
	switch e.Mode {
	case filemode.Submodule:
		if err := fs.MkdirAll(e.path, 0o755); err != nil {
			return nil, 0, err
		}
	case filemode.Symlink:
		target, err := readBlob(repo, e.Hash)
		if err != nil {
			return nil, 0, err
		}
		if err := fs.Symlink(string(target), e.path); err != nil {
			return nil, 0, err
		}
		n = int64(len(target))
	default:
		perm, err := e.Mode.ToOSFileMode()
		if err != nil {
			return nil, 0, err
		}
		n, err = writeBlob(repo, fs, e.path, e.Hash, perm.Perm())
		if err != nil {
			return nil, 0, err
		}
	}

	ie := &index.Entry{Hash: e.Hash, Name: e.path, Mode: e.Mode, Size: uint32(n)}
	if fi, err := fs.Lstat(e.path); err == nil {
		ie.ModifiedAt = fi.ModTime()
	}
	return ie, n, nil
}

// clearParents removes files and links standing where dir needs a directory.
func clearParents(fs billy.Filesystem, dir string) error {
	parts := strings.Split(dir, "/")
	for i := range parts {
		p := strings.Join(parts[:i+1], "/")
		fi, err := fs.Lstat(p)
		if stderrors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return fs.Remove(p)
		}
	}
	return nil
}

// clearPath removes whatever occupies p, a file, a link or a directory.
func clearPath(fs billy.Filesystem, p string) error {
	fi, err := fs.Lstat(p)
	if stderrors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return util.RemoveAll(fs, p)
	}
	return fs.Remove(p)
}

func readBlob(repo *git.Repository, h plumbing.Hash) ([]byte, error) {
	blob, err := repo.BlobObject(h)
	if err != nil {
		return nil, fmt.Errorf("%w: blob %s: %v", ErrObjectMissing, h, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func writeBlob(repo *git.Repository, fs billy.Filesystem, p string, h plumbing.Hash, perm os.FileMode) (n int64, err error) {
	blob, err := repo.BlobObject(h)
	if err != nil {
		return 0, fmt.Errorf("%w: blob %s: %v", ErrObjectMissing, h, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return 0, err
	}
	defer r.Close()

	f, err := fs.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return io.Copy(f, r)
}
