// Package refs models the references advertised by a remote, plans how HEAD
// follows a requested revision and commits those plans atomically.
package refs

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Kind is the shape of an advertised reference.
type Kind int

const (
	// Direct references point at an object id.
	Direct Kind = iota
	// Symbolic references point at another reference that exists.
	Symbolic
	// Unborn references point at a reference that has no commit yet.
	Unborn
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Symbolic:
		return "symbolic"
	case Unborn:
		return "unborn"
	}
	return "unknown"
}

// peeledSuffix marks the advertised commit of an annotated tag.
const peeledSuffix = "^{}"

// RemoteRef is one reference as the remote advertised it.
type RemoteRef struct {
	Kind Kind
	Name plumbing.ReferenceName

	// Target is set for Symbolic and Unborn references.
	Target plumbing.ReferenceName

	// Object is the id of a Direct reference, or the id Target resolves to
	// for a Symbolic one. It is zero when the remote did not say.
	Object plumbing.Hash

	// Peeled is the object an annotated tag points to.
	Peeled plumbing.Hash
}

// Commit returns the id a checkout of r ends up on.
func (r RemoteRef) Commit() plumbing.Hash {
	if !r.Peeled.IsZero() {
		return r.Peeled
	}
	return r.Object
}

// RemoteRefs is the reference set of one fetch, in advertised order.
type RemoteRefs []RemoteRef

// FromAdvertised builds a reference set from the output of a remote listing.
// Peeled entries ("refs/tags/v1^{}") are folded into their tag and symbolic
// references whose target is not advertised become Unborn.
func FromAdvertised(advertised []*plumbing.Reference) RemoteRefs {
	hashes := make(map[plumbing.ReferenceName]plumbing.Hash, len(advertised))
	peeled := make(map[plumbing.ReferenceName]plumbing.Hash)
	for _, ref := range advertised {
		if ref.Type() != plumbing.HashReference {
			continue
		}
		name := ref.Name().String()
		if strings.HasSuffix(name, peeledSuffix) {
			peeled[plumbing.ReferenceName(strings.TrimSuffix(name, peeledSuffix))] = ref.Hash()
			continue
		}
		hashes[ref.Name()] = ref.Hash()
	}

	set := make(RemoteRefs, 0, len(advertised))
	for _, ref := range advertised {
		if strings.HasSuffix(ref.Name().String(), peeledSuffix) {
			continue
		}
		switch ref.Type() {
		case plumbing.HashReference:
			set = append(set, RemoteRef{
				Kind:   Direct,
				Name:   ref.Name(),
				Object: ref.Hash(),
				Peeled: peeled[ref.Name()],
			})
		case plumbing.SymbolicReference:
			target := ref.Target()
			if h, ok := hashes[target]; ok {
				set = append(set, RemoteRef{Kind: Symbolic, Name: ref.Name(), Target: target, Object: h})
			} else {
				set = append(set, RemoteRef{Kind: Unborn, Name: ref.Name(), Target: target})
			}
		}
	}
	return set
}

// Find returns the reference called name.
func (s RemoteRefs) Find(name plumbing.ReferenceName) (RemoteRef, bool) {
	for _, r := range s {
		if r.Name == name {
			return r, true
		}
	}
	return RemoteRef{}, false
}

// Head returns the remote HEAD, if advertised.
func (s RemoteRefs) Head() (RemoteRef, bool) {
	return s.Find(plumbing.HEAD)
}
