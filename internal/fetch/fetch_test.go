package fetch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/refs"
	"github.com/NicabarNimble/go-gitsync/internal/testutil"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.WriteFile("README.md", "hello\n")
	first := up.Commit("first")
	up.Branch("dev", first)
	up.Tag("light", first)
	tagObj := up.AnnotatedTag("1.1.0", first, "release")
	up.WriteFile("README.md", "hello again\n")
	second := up.Commit("second")

	dst := filepath.Join(t.TempDir(), "dst")
	repo, set, err := Clone(context.Background(), up.URL(), dst, Options{})
	require.NoError(t, err)

	head, ok := set.Head()
	require.True(t, ok)
	assert.Equal(t, refs.Symbolic, head.Kind)
	assert.Equal(t, plumbing.NewBranchReferenceName("master"), head.Target)
	assert.Equal(t, second, head.Object)

	dev, ok := set.Find(plumbing.NewBranchReferenceName("dev"))
	require.True(t, ok)
	assert.Equal(t, first, dev.Object)

	tag, ok := set.Find(plumbing.NewTagReferenceName("1.1.0"))
	require.True(t, ok)
	assert.Equal(t, tagObj, tag.Object)

	// remote branches and tags are stored locally with their objects
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(OriginName, "master"), true)
	require.NoError(t, err)
	assert.Equal(t, second, ref.Hash())
	ref, err = repo.Reference(plumbing.NewTagReferenceName("1.1.0"), true)
	require.NoError(t, err)
	assert.Equal(t, tagObj, ref.Hash())
	_, err = repo.TagObject(tagObj)
	assert.NoError(t, err)
	_, err = repo.CommitObject(first)
	assert.NoError(t, err)

	assert.FileExists(t, filepath.Join(dst, ".git", "packed-refs"))
	assert.NoFileExists(t, filepath.Join(dst, ".git", "refs", "remotes", OriginName, "master"))
}

func TestClone_EmptyRemote(t *testing.T) {
	up := testutil.NewUpstream(t)

	dst := filepath.Join(t.TempDir(), "dst")
	repo, set, err := Clone(context.Background(), up.URL(), dst, Options{})
	require.NoError(t, err)
	assert.NotNil(t, repo)

	// only the unborn HEAD is advertised
	require.Len(t, set, 1)
	head, ok := set.Head()
	require.True(t, ok)
	assert.Equal(t, refs.Unborn, head.Kind)
	assert.Equal(t, plumbing.NewBranchReferenceName("master"), head.Target)
	assert.True(t, head.Object.IsZero())
}

func TestClone_InvalidURL(t *testing.T) {
	_, _, err := Clone(context.Background(), "", filepath.Join(t.TempDir(), "dst"), Options{})
	require.Error(t, err)
	assert.Equal(t, errors.URLParse, errors.KindOf(err))
}

func TestClone_MissingRemote(t *testing.T) {
	testutil.InstallFileTransport()
	missing := filepath.Join(t.TempDir(), "nope", ".git")

	_, _, err := Clone(context.Background(), missing, filepath.Join(t.TempDir(), "dst"), Options{})
	require.Error(t, err)
	assert.Equal(t, errors.Connect, errors.KindOf(err))
}

func TestFetch_Update(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.WriteFile("a.txt", "a")
	up.Commit("first")

	dst := filepath.Join(t.TempDir(), "dst")
	repo, _, err := Clone(context.Background(), up.URL(), dst, Options{})
	require.NoError(t, err)

	up.WriteFile("a.txt", "b")
	next := up.Commit("second")

	set, err := Fetch(context.Background(), repo, Options{})
	require.NoError(t, err)
	head, _ := set.Head()
	assert.Equal(t, next, head.Object)

	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(OriginName, "master"), true)
	require.NoError(t, err)
	assert.Equal(t, next, ref.Hash())

	// nothing new
	_, err = Fetch(context.Background(), repo, Options{})
	assert.NoError(t, err)

	// packed references are updated again on the next change
	up.WriteFile("a.txt", "c")
	third := up.Commit("third")
	up.Tag("v3", third)
	_, err = Fetch(context.Background(), repo, Options{})
	require.NoError(t, err)

	ref, err = repo.Reference(plumbing.NewRemoteReferenceName(OriginName, "master"), true)
	require.NoError(t, err)
	assert.Equal(t, third, ref.Hash())
	ref, err = repo.Reference(plumbing.NewTagReferenceName("v3"), true)
	require.NoError(t, err)
	assert.Equal(t, third, ref.Hash())
	assert.NoFileExists(t, filepath.Join(dst, ".git", "refs", "remotes", OriginName, "master"))
}

func TestFetch_NoOrigin(t *testing.T) {
	repo, err := git.PlainInit(t.TempDir(), false)
	require.NoError(t, err)

	_, err = Fetch(context.Background(), repo, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.Connect, errors.KindOf(err))
}

func TestFetch_Cancelled(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.WriteFile("a.txt", "a")
	up.Commit("first")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Clone(ctx, up.URL(), filepath.Join(t.TempDir(), "dst"), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCancelled(err))
}

func TestOpen(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.WriteFile("a.txt", "a")
	up.Commit("first")
	dst := filepath.Join(t.TempDir(), "dst")
	_, _, err := Clone(context.Background(), up.URL(), dst, Options{})
	require.NoError(t, err)

	repo, err := Open(dst, up.URL()+"/")
	require.NoError(t, err)
	remote, err := repo.Remote(OriginName)
	require.NoError(t, err)
	assert.Equal(t, []string{up.URL()}, remote.Config().URLs)

	other := filepath.Join(t.TempDir(), "other.git")
	repo, err = Open(dst, other)
	require.NoError(t, err)
	remote, err = repo.Remote(OriginName)
	require.NoError(t, err)
	assert.Equal(t, []string{other}, remote.Config().URLs)

	_, err = Open(t.TempDir(), up.URL())
	assert.Error(t, err)

	_, err = Open(dst, "")
	assert.Equal(t, errors.URLParse, errors.KindOf(err))
}

func TestOpen_DropsReferencesOfOldOrigin(t *testing.T) {
	old := testutil.NewUpstream(t)
	old.WriteFile("a.txt", "a")
	first := old.Commit("first")
	old.Tag("1.0.0", first)

	dst := filepath.Join(t.TempDir(), "dst")
	repo, _, err := Clone(context.Background(), old.URL(), dst, Options{})
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("master"), first)))
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, first)))

	other := testutil.NewUpstream(t)
	other.WriteFile("b.txt", "b")
	second := other.Commit("other")

	repo, err = Open(dst, other.URL())
	require.NoError(t, err)

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewRemoteReferenceName(OriginName, "master"),
		plumbing.NewTagReferenceName("1.0.0"),
		plumbing.NewBranchReferenceName("master"),
	} {
		_, err := repo.Reference(name, false)
		assert.ErrorIs(t, err, plumbing.ErrReferenceNotFound, name.String())
	}
	head, err := repo.Reference(plumbing.HEAD, false)
	require.NoError(t, err)
	assert.Equal(t, plumbing.SymbolicReference, head.Type())

	_, err = Fetch(context.Background(), repo, Options{})
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(OriginName, "master"), true)
	require.NoError(t, err)
	assert.Equal(t, second, ref.Hash())
}
