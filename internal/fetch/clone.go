package fetch

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/refs"
	"github.com/NicabarNimble/go-gitsync/internal/urlutils"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"k8s.io/klog/v2"
)

// Clone initializes a repository with a worktree at dst, adds url as origin
// and fetches it. dst must not contain a repository. Cleaning up dst after
// a failure is left to the caller.
func Clone(ctx context.Context, url, dst string, opts Options) (*git.Repository, refs.RemoteRefs, error) {
	const op = "clone"
	if _, err := urlutils.Parse(url); err != nil {
		return nil, nil, errors.E(op, errors.URLParse, err)
	}

	repo, err := git.PlainInit(dst, false)
	if err != nil {
		return nil, nil, errors.E(op, errors.Clone, fmt.Errorf("init %s: %w", dst, err))
	}
	if _, err := repo.CreateRemote(originConfig(url)); err != nil {
		return nil, nil, errors.E(op, errors.Clone, err)
	}

	set, err := Fetch(ctx, repo, opts)
	if err != nil {
		return nil, nil, err
	}
	return repo, set, nil
}

// Open opens the repository at dst and makes sure origin points at url. A
// different origin URL is replaced and the references fetched from the old
// one are dropped.
func Open(dst, url string) (*git.Repository, error) {
	const op = "open"
	if _, err := urlutils.Parse(url); err != nil {
		return nil, errors.E(op, errors.URLParse, err)
	}
	repo, err := git.PlainOpen(dst)
	if err != nil {
		return nil, errors.E(op, errors.IO, fmt.Errorf("open %s: %w", dst, err))
	}

	remote, err := repo.Remote(OriginName)
	switch {
	case stderrors.Is(err, git.ErrRemoteNotFound):
	case err != nil:
		return nil, errors.E(op, errors.IO, err)
	default:
		var current string
		if urls := remote.Config().URLs; len(urls) > 0 {
			current = urls[0]
		}
		if urlutils.SameRemote(current, url) {
			return repo, nil
		}
		klog.Warningf("%s: origin was %q, replacing with %s", dst, urlutils.Redact(current), urlutils.Redact(url))
		if err := repo.DeleteRemote(OriginName); err != nil {
			return nil, errors.E(op, errors.IO, err)
		}
		if err := forgetOrigin(repo); err != nil {
			return nil, errors.E(op, errors.IO, fmt.Errorf("drop references of %s: %w", urlutils.Redact(current), err))
		}
	}

	if _, err := repo.CreateRemote(originConfig(url)); err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	return repo, nil
}

func originConfig(url string) *config.RemoteConfig {
	return &config.RemoteConfig{
		Name:  OriginName,
		URLs:  []string{url},
		Fetch: []config.RefSpec{fetchSpec},
	}
}
