package checkout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/fetch"
	"github.com/NicabarNimble/go-gitsync/internal/lockfile"
	"github.com/NicabarNimble/go-gitsync/internal/progress"
	"github.com/NicabarNimble/go-gitsync/internal/refs"
	"github.com/NicabarNimble/go-gitsync/internal/testutil"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUpstream(t *testing.T) *testutil.Upstream {
	up := testutil.NewUpstream(t)
	up.WriteFile("README.md", "# sample\n")
	up.WriteFile("dir/a.txt", "a\n")
	up.WriteExecutable("run.sh", "#!/bin/sh\necho hi\n")
	up.Symlink("link", "README.md")
	up.Commit("initial")
	return up
}

// moveHead fetches origin and points HEAD at rev without checking out.
func moveHead(t *testing.T, repo *git.Repository, rev string) {
	t.Helper()
	set, err := fetch.Fetch(context.Background(), repo, fetch.Options{})
	require.NoError(t, err)
	edits, err := refs.PlanHead(set, rev)
	require.NoError(t, err)
	require.NoError(t, refs.NewTransaction(repo).Commit(context.Background(), edits))
}

func cloneAt(t *testing.T, up *testutil.Upstream, rev string) (*git.Repository, string) {
	t.Helper()
	dst := filepath.Join(t.TempDir(), "dst")
	repo, _, err := fetch.Clone(context.Background(), up.URL(), dst, fetch.Options{})
	require.NoError(t, err)
	moveHead(t, repo, rev)
	return repo, dst
}

func TestCheckout(t *testing.T) {
	up := sampleUpstream(t)
	repo, dst := cloneAt(t, up, "")

	var events []progress.Event
	res, err := Checkout(context.Background(), repo, Options{Progress: func(e progress.Event) { events = append(events, e) }})
	require.NoError(t, err)

	head, err := up.Repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), res.Commit)
	assert.Equal(t, int64(4), res.Files)
	assert.Equal(t, 0, res.Removed)

	assert.Equal(t, "# sample\n", testutil.ReadFile(t, filepath.Join(dst, "README.md")))
	assert.Equal(t, "a\n", testutil.ReadFile(t, filepath.Join(dst, "dir/a.txt")))

	fi, err := os.Stat(filepath.Join(dst, "run.sh"))
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode().Perm()&0o100, "run.sh should be executable")

	target, err := os.Readlink(filepath.Join(dst, "link"))
	require.NoError(t, err)
	assert.Equal(t, "README.md", target)

	require.Len(t, events, 4)
	last := events[len(events)-1]
	assert.Equal(t, int64(4), last.Files)
	assert.Equal(t, int64(4), last.TotalFiles)
	assert.Equal(t, res.Bytes, last.Bytes)

	idx, err := repo.Storer.Index()
	require.NoError(t, err)
	names := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"README.md", "dir/a.txt", "link", "run.sh"}, names)
	assert.Equal(t, filemode.Executable, idx.Entries[3].Mode)
	assert.Equal(t, filemode.Symlink, idx.Entries[2].Mode)
}

func TestCheckout_RemovesStaleFiles(t *testing.T) {
	up := sampleUpstream(t)
	repo, dst := cloneAt(t, up, "")
	_, err := Checkout(context.Background(), repo, Options{})
	require.NoError(t, err)

	up.Remove("dir/a.txt")
	up.Remove("README.md")
	up.WriteFile("README.md/keep", "")
	up.WriteFile("b.txt", "b\n")
	up.Commit("reshape")

	moveHead(t, repo, "")
	res, err := Checkout(context.Background(), repo, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)

	assert.NoFileExists(t, filepath.Join(dst, "dir/a.txt"))
	assert.NoDirExists(t, filepath.Join(dst, "dir"))
	assert.Equal(t, "b\n", testutil.ReadFile(t, filepath.Join(dst, "b.txt")))
	assert.DirExists(t, filepath.Join(dst, "README.md"))
}

func TestCheckout_DirectoryBecomesFile(t *testing.T) {
	up := sampleUpstream(t)
	repo, dst := cloneAt(t, up, "")
	_, err := Checkout(context.Background(), repo, Options{})
	require.NoError(t, err)

	up.Remove("dir/a.txt")
	up.WriteFile("dir", "now a file\n")
	up.Commit("flatten")

	moveHead(t, repo, "")
	res, err := Checkout(context.Background(), repo, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, "now a file\n", testutil.ReadFile(t, filepath.Join(dst, "dir")))
}

func TestCheckout_Tag(t *testing.T) {
	up := sampleUpstream(t)
	first, err := up.Repo.Head()
	require.NoError(t, err)
	up.AnnotatedTag("1.1.0", first.Hash(), "release")
	up.WriteFile("README.md", "changed\n")
	up.Commit("later")

	repo, dst := cloneAt(t, up, "1.1.0")

	res, err := Checkout(context.Background(), repo, Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), res.Commit)
	assert.Equal(t, "# sample\n", testutil.ReadFile(t, filepath.Join(dst, "README.md")))
}

func TestCheckout_Cancelled(t *testing.T) {
	up := sampleUpstream(t)
	repo, dst := cloneAt(t, up, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res, err := Checkout(ctx, repo, Options{Progress: func(progress.Event) { cancel() }})
	require.Error(t, err)
	assert.True(t, errors.IsCancelled(err))
	assert.Equal(t, int64(1), res.Files)
	assert.NoFileExists(t, filepath.Join(dst, ".git", "index"))
}

func TestCheckout_UnbornHead(t *testing.T) {
	repo, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)

	res, err := Checkout(context.Background(), repo, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestCheckout_IndexLocked(t *testing.T) {
	up := sampleUpstream(t)
	repo, dst := cloneAt(t, up, "")
	require.NoError(t, os.WriteFile(filepath.Join(dst, ".git", "index.lock"), nil, 0o644))

	_, err := Checkout(context.Background(), repo, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.Checkout, errors.KindOf(err))
	assert.ErrorIs(t, err, lockfile.ErrLocked)
}

func TestCheckout_MissingObject(t *testing.T) {
	up := sampleUpstream(t)
	repo, _ := cloneAt(t, up, "")
	require.NoError(t, refs.NewTransaction(repo).Commit(context.Background(),
		refs.Detach(plumbing.NewHash("dddddddddddddddddddddddddddddddddddddddd"), "bogus")))

	_, err := Checkout(context.Background(), repo, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.CheckoutPrep, errors.KindOf(err))
	assert.ErrorIs(t, err, ErrObjectMissing)
}

func TestCheckout_Bare(t *testing.T) {
	repo, err := git.PlainInit(t.TempDir(), true)
	require.NoError(t, err)

	_, err = Checkout(context.Background(), repo, Options{})
	assert.ErrorIs(t, err, ErrNoWorktree)
}

func TestValidPath(t *testing.T) {
	assert.True(t, validPath("a/b.txt"))
	assert.False(t, validPath(""))
	assert.False(t, validPath("/etc/passwd"))
	assert.False(t, validPath("a/../b"))
	assert.False(t, validPath(".git/config"))
	assert.False(t, validPath("sub/.GIT/hooks"))
}
