// Package fetch connects to the origin remote, lists what it advertises and
// downloads the missing objects.
package fetch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/refs"
	"github.com/NicabarNimble/go-gitsync/internal/token"
	"github.com/NicabarNimble/go-gitsync/internal/urlutils"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"k8s.io/klog/v2"
)

// OriginName is the only remote a synchronized repository has.
const OriginName = "origin"

const fetchSpec = "+refs/heads/*:refs/remotes/" + OriginName + "/*"

// Options configure a fetch.
type Options struct {
	// Auth is used as is when set. Otherwise Tokens is consulted.
	Auth   transport.AuthMethod
	Tokens token.Storage

	// Progress receives the remote's sideband messages.
	Progress io.Writer
}

func (o Options) auth(ctx context.Context, url string) (transport.AuthMethod, error) {
	if o.Auth != nil {
		return o.Auth, nil
	}
	return token.AuthFor(ctx, o.Tokens, url)
}

// Fetch lists the references of origin and fetches its branches into
// refs/remotes/origin and its tags into refs/tags, overwriting local values.
// Loose references are packed afterwards. An empty remote yields an empty
// reference set.
func Fetch(ctx context.Context, repo *git.Repository, opts Options) (refs.RemoteRefs, error) {
	const op = "fetch"
	if err := ctx.Err(); err != nil {
		return nil, errors.E(op, errors.Cancelled, err)
	}

	remote, err := repo.Remote(OriginName)
	if err != nil {
		return nil, errors.E(op, errors.Connect, fmt.Errorf("remote %s: %w", OriginName, err))
	}
	url := remote.Config().URLs[0]
	auth, err := opts.auth(ctx, url)
	if err != nil {
		return nil, errors.E(op, errors.Connect, err)
	}

	klog.V(1).Infof("listing references of %s", urlutils.Redact(url))
	advertised, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth, PeelingOption: git.AppendPeeled})
	switch {
	case stderrors.Is(err, transport.ErrEmptyRemoteRepository):
		klog.V(1).Infof("%s is empty", urlutils.Redact(url))
		return refs.RemoteRefs{}, nil
	case err != nil:
		if ctx.Err() != nil {
			return nil, errors.E(op, errors.Cancelled, ctx.Err())
		}
		return nil, errors.E(op, errors.Connect, fmt.Errorf("list %s: %w", urlutils.Redact(url), err))
	}
	set := refs.FromAdvertised(advertised)

	if err := ctx.Err(); err != nil {
		return nil, errors.E(op, errors.Cancelled, err)
	}
	if err := loosen(repo); err != nil {
		return nil, errors.E(op, errors.FetchExecution, fmt.Errorf("unpack references: %w", err))
	}
	err = remote.FetchContext(ctx, &git.FetchOptions{
		RemoteName: OriginName,
		RefSpecs:   []config.RefSpec{fetchSpec},
		Auth:       auth,
		Progress:   opts.Progress,
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) && !stderrors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, errors.E(op, classify(ctx, err), fmt.Errorf("fetch %s: %w", urlutils.Redact(url), err))
	}

	if err := repo.Storer.PackRefs(); err != nil {
		klog.Warningf("failed to pack references: %v", err)
	}
	klog.V(1).Infof("fetched %d references from %s", len(set), urlutils.Redact(url))
	return set, nil
}

func classify(ctx context.Context, err error) errors.Kind {
	var noMatch git.NoMatchingRefSpecError
	switch {
	case ctx.Err() != nil:
		return errors.Cancelled
	case stderrors.As(err, &noMatch),
		stderrors.Is(err, git.ErrForceNeeded),
		stderrors.Is(err, git.ErrExactSHA1NotSupported):
		return errors.FetchNegotiation
	case stderrors.Is(err, transport.ErrAuthenticationRequired),
		stderrors.Is(err, transport.ErrAuthorizationFailed),
		stderrors.Is(err, transport.ErrRepositoryNotFound):
		return errors.Connect
	}
	return errors.FetchExecution
}
