package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/NicabarNimble/go-gitsync/internal/checkout"
	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/fetch"
	"github.com/NicabarNimble/go-gitsync/internal/gitconfig"
	"github.com/NicabarNimble/go-gitsync/internal/progress"
	"github.com/NicabarNimble/go-gitsync/internal/refs"
	"github.com/NicabarNimble/go-gitsync/internal/token"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"k8s.io/klog/v2"
)

// Plumbing synchronizes with go-git, without a git executable.
type Plumbing struct {
	Tokens   token.Storage
	Progress progress.Sink
	Sideband io.Writer
}

func (p *Plumbing) Name() string { return BackendPlumbing }

// Retrieve opens or clones the destination, fetches origin, points HEAD at
// the revision and checks it out. A failed clone leaves no repository behind.
func (p *Plumbing) Retrieve(ctx context.Context, req Request) error {
	dst := req.Destination
	if _, err := prepareParent(dst); err != nil {
		return err
	}
	exists, err := destinationExists(dst)
	if err != nil {
		return err
	}

	opts := fetch.Options{Tokens: p.Tokens, Progress: p.Sideband}
	var (
		repo   *git.Repository
		remote refs.RemoteRefs
	)
	if exists {
		repo, err = fetch.Open(dst, req.URL)
		if err != nil {
			return err
		}
		if remote, err = fetch.Fetch(ctx, repo, opts); err != nil {
			return err
		}
	} else {
		_, statErr := os.Stat(dst)
		created := stderrors.Is(statErr, os.ErrNotExist)
		repo, remote, err = fetch.Clone(ctx, req.URL, dst, opts)
		if err != nil {
			cleanup(dst, created)
			return err
		}
	}

	edits, err := planHead(repo, remote, req.Revision)
	if err != nil {
		return err
	}
	if err := refs.NewTransaction(repo).Commit(ctx, edits); err != nil {
		return err
	}

	res, err := checkout.Checkout(ctx, repo, checkout.Options{Progress: p.Progress})
	if err != nil {
		return err
	}
	klog.V(1).Infof("%s at %s: %d files, %d bytes, %d removed", dst, res.Commit, res.Files, res.Bytes, res.Removed)
	return nil
}

// planHead plans the HEAD update for rev. Revisions the remote does not
// advertise, such as abbreviated commit ids, are resolved against the
// fetched objects. Every id is peeled to a commit that must exist locally.
func planHead(repo *git.Repository, remote refs.RemoteRefs, rev string) ([]refs.RefEdit, error) {
	const op = "plan"
	edits, err := refs.PlanHead(remote, rev)
	if stderrors.Is(err, refs.ErrUnknownRevision) {
		h, rerr := repo.ResolveRevision(plumbing.Revision(rev))
		if rerr != nil {
			return nil, errors.E(op, errors.CheckoutPrep, err)
		}
		edits, err = refs.Detach(*h, "gitsync: moving to "+rev), nil
	}
	if err != nil {
		return nil, errors.E(op, errors.CheckoutPrep, err)
	}

	for i, e := range edits {
		if e.Ref.Type() != plumbing.HashReference {
			continue
		}
		id, err := peel(repo, e.Ref.Hash())
		if err != nil {
			return nil, errors.E(op, errors.CheckoutPrep, err)
		}
		edits[i].Ref = plumbing.NewHashReference(e.Name(), id)
	}
	return edits, nil
}

func peel(repo *git.Repository, h plumbing.Hash) (plumbing.Hash, error) {
	obj, err := repo.Object(plumbing.AnyObject, h)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: %s: %v", checkout.ErrObjectMissing, h, err)
	}
	switch o := obj.(type) {
	case *object.Commit:
		return o.Hash, nil
	case *object.Tag:
		c, err := o.Commit()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("peel tag %s: %w", h, err)
		}
		return c.Hash, nil
	}
	return plumbing.ZeroHash, fmt.Errorf("%s is a %s, not a commit", h, obj.Type())
}

// FindCmdTool reads the system and global configuration files.
func (p *Plumbing) FindCmdTool(ctx context.Context, kind string) (string, error) {
	return gitconfig.FindCmdTool(ctx, &gitconfig.RepoGetter{}, kind)
}
