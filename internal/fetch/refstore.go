package fetch

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const remotePrefix = "refs/remotes/" + OriginName + "/"

// fetchedRef reports whether a fetch of origin writes name.
func fetchedRef(name plumbing.ReferenceName) bool {
	return strings.HasPrefix(name.String(), remotePrefix) || name.IsTag()
}

// collectRefs returns the hash references of repo accepted by keep.
func collectRefs(repo *git.Repository, keep func(plumbing.ReferenceName) bool) ([]*plumbing.Reference, error) {
	iter, err := repo.Storer.IterReferences()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference && keep(ref.Name()) {
			out = append(out, ref)
		}
		return nil
	})
	return out, err
}

// loosen writes the packed references a fetch updates back as loose files.
// go-git compares the previous value of a fetched reference with its loose
// file only, so updating a packed-only reference fails.
func loosen(repo *git.Repository) error {
	packed, err := collectRefs(repo, fetchedRef)
	if err != nil {
		return err
	}
	for _, ref := range packed {
		if err := repo.Storer.SetReference(ref); err != nil {
			return err
		}
	}
	return nil
}

// forgetOrigin drops everything learned from a previous origin: its
// remote-tracking references, the tags and the local branches made from
// them. A detached HEAD is reattached to the unborn master branch. Objects
// stay in the store until they are pruned.
func forgetOrigin(repo *git.Repository) error {
	stale, err := collectRefs(repo, func(name plumbing.ReferenceName) bool {
		return fetchedRef(name) || name.IsBranch()
	})
	if err != nil {
		return err
	}
	for _, ref := range stale {
		if err := repo.Storer.RemoveReference(ref.Name()); err != nil {
			return err
		}
	}

	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil || head.Type() == plumbing.SymbolicReference {
		return nil
	}
	return repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.Master))
}
