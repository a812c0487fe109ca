// Package testutil builds throwaway upstream repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
)

var installOnce sync.Once

// InstallFileTransport serves file:// remotes and local paths in process so
// go-git needs no git binary.
func InstallFileTransport() {
	installOnce.Do(func() {
		client.InstallProtocol("file", server.DefaultServer)
	})
}

// Upstream is a non-bare repository acting as the remote of a test.
type Upstream struct {
	t    testing.TB
	Dir  string
	Repo *git.Repository
	wt   *git.Worktree
	when time.Time
}

// NewUpstream initializes an empty upstream whose HEAD points at the unborn
// master branch.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()
	InstallFileTransport()

	dir := filepath.Join(t.TempDir(), "upstream")
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit(%q) failed: %v", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() failed: %v", err)
	}
	return &Upstream{
		t:    t,
		Dir:  dir,
		Repo: repo,
		wt:   wt,
		when: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// URL is the location clients fetch from.
func (u *Upstream) URL() string {
	return filepath.Join(u.Dir, git.GitDirName)
}

// WriteFile creates or replaces a regular file in the worktree.
func (u *Upstream) WriteFile(name, contents string) {
	u.write(name, contents, 0o644)
}

// WriteExecutable creates or replaces an executable file in the worktree.
func (u *Upstream) WriteExecutable(name, contents string) {
	u.write(name, contents, 0o755)
}

func (u *Upstream) write(name, contents string, mode os.FileMode) {
	u.t.Helper()
	p := filepath.Join(u.Dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		u.t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(p, []byte(contents), mode); err != nil {
		u.t.Fatalf("WriteFile(%q) failed: %v", name, err)
	}
	if err := os.Chmod(p, mode); err != nil {
		u.t.Fatalf("Chmod(%q) failed: %v", name, err)
	}
}

// Symlink creates a symbolic link in the worktree.
func (u *Upstream) Symlink(name, target string) {
	u.t.Helper()
	p := filepath.Join(u.Dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		u.t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.Symlink(target, p); err != nil {
		u.t.Fatalf("Symlink(%q) failed: %v", name, err)
	}
}

// Remove deletes a tracked file from the worktree and the index.
func (u *Upstream) Remove(name string) {
	u.t.Helper()
	if _, err := u.wt.Remove(name); err != nil {
		u.t.Fatalf("Remove(%q) failed: %v", name, err)
	}
}

// Commit records every change in the worktree on the current branch.
func (u *Upstream) Commit(message string) plumbing.Hash {
	u.t.Helper()
	if err := u.wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		u.t.Fatalf("Add failed: %v", err)
	}
	u.when = u.when.Add(time.Minute)
	sig := u.signature()
	h, err := u.wt.Commit(message, &git.CommitOptions{All: true, Author: sig, Committer: sig})
	if err != nil {
		u.t.Fatalf("Commit(%q) failed: %v", message, err)
	}
	return h
}

// Branch creates or moves a branch without checking it out.
func (u *Upstream) Branch(name string, at plumbing.Hash) {
	u.setRef(plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), at))
}

// Checkout switches the worktree to an existing branch, or creates it at the
// current commit.
func (u *Upstream) Checkout(branch string) {
	u.t.Helper()
	name := plumbing.NewBranchReferenceName(branch)
	_, err := u.Repo.Reference(name, false)
	opts := &git.CheckoutOptions{Branch: name, Force: true, Create: err != nil}
	if err := u.wt.Checkout(opts); err != nil {
		u.t.Fatalf("Checkout(%q) failed: %v", branch, err)
	}
}

// Tag creates a lightweight tag.
func (u *Upstream) Tag(name string, at plumbing.Hash) {
	u.t.Helper()
	if _, err := u.Repo.CreateTag(name, at, nil); err != nil {
		u.t.Fatalf("CreateTag(%q) failed: %v", name, err)
	}
}

// AnnotatedTag creates an annotated tag and returns the id of the tag object.
func (u *Upstream) AnnotatedTag(name string, at plumbing.Hash, message string) plumbing.Hash {
	u.t.Helper()
	ref, err := u.Repo.CreateTag(name, at, &git.CreateTagOptions{Tagger: u.signature(), Message: message})
	if err != nil {
		u.t.Fatalf("CreateTag(%q) failed: %v", name, err)
	}
	return ref.Hash()
}

// SetHead points the upstream HEAD at a branch, which may not exist yet.
func (u *Upstream) SetHead(branch string) {
	u.setRef(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch)))
}

// DetachHead points the upstream HEAD directly at a commit.
func (u *Upstream) DetachHead(at plumbing.Hash) {
	u.setRef(plumbing.NewHashReference(plumbing.HEAD, at))
}

func (u *Upstream) setRef(ref *plumbing.Reference) {
	u.t.Helper()
	if err := u.Repo.Storer.SetReference(ref); err != nil {
		u.t.Fatalf("SetReference(%s) failed: %v", ref, err)
	}
}

func (u *Upstream) signature() *object.Signature {
	return &object.Signature{Name: "Test", Email: "test@example.com", When: u.when}
}

// RequireGit skips the test when no git executable is on PATH.
func RequireGit(t testing.TB) string {
	t.Helper()
	p, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not found on PATH")
	}
	return p
}

// GitEnv isolates git commands from the user's configuration.
func GitEnv() []string {
	return []string{
		"GIT_AUTHOR_NAME=test",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test",
		"GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_GLOBAL=/dev/null",
		"GIT_CONFIG_SYSTEM=/dev/null",
		"GIT_TERMINAL_PROMPT=0",
	}
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%q) failed: %v", path, err)
	}
	return string(data)
}
