package refs

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

var (
	ErrDetachedWithoutObject = errors.New("remote HEAD is detached but advertises no object")
	ErrUnknownRevision       = errors.New("revision not advertised by remote")
)

// LogMode selects whether an edit changes the reference or only its log.
type LogMode int

const (
	LogAndUpdate LogMode = iota
	LogOnly
)

// RefEdit is one change of a transaction.
type RefEdit struct {
	// Ref is the new value. For LogOnly edits its hash is the id recorded
	// as the new value in the log.
	Ref *plumbing.Reference

	// Expected is the required previous value, nil accepts any.
	Expected *plumbing.Reference

	Mode    LogMode
	Message string
}

// Name of the edited reference.
func (e RefEdit) Name() plumbing.ReferenceName { return e.Ref.Name() }

func (e RefEdit) String() string {
	mode := "update"
	if e.Mode == LogOnly {
		mode = "log"
	}
	return fmt.Sprintf("%s %s", mode, e.Ref.String())
}

// PlanHead returns the edits that make HEAD follow rev on the remote.
//
// An empty rev or "HEAD" mirrors the remote HEAD: a symbolic or unborn HEAD
// becomes a local symbolic HEAD, with its branch set to the advertised id
// when there is one; a direct HEAD detaches. Without a remote HEAD nothing
// changes. A branch makes HEAD symbolic to the local branch of that name, a
// tag or a full object id detaches HEAD at the commit.
func PlanHead(remote RemoteRefs, rev string) ([]RefEdit, error) {
	msg := "gitsync: moving to " + rev
	if rev == "" || rev == plumbing.HEAD.String() {
		return planRemoteHead(remote, "gitsync: moving to HEAD")
	}

	for _, name := range candidates(rev) {
		r, ok := remote.Find(name)
		if !ok {
			continue
		}
		if name.IsBranch() {
			id := r.Commit()
			if id.IsZero() {
				return []RefEdit{symbolicHead(name, msg)}, nil
			}
			return attach(name, id, msg), nil
		}
		if r.Commit().IsZero() {
			return nil, fmt.Errorf("%w: %s has no object", ErrUnknownRevision, rev)
		}
		return Detach(r.Commit(), msg), nil
	}

	if isFullHash(rev) {
		return Detach(plumbing.NewHash(rev), msg), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRevision, rev)
}

// Detach returns the edit pointing HEAD directly at id.
func Detach(id plumbing.Hash, msg string) []RefEdit {
	return []RefEdit{{
		Ref:     plumbing.NewHashReference(plumbing.HEAD, id),
		Mode:    LogAndUpdate,
		Message: msg,
	}}
}

func planRemoteHead(remote RemoteRefs, msg string) ([]RefEdit, error) {
	head, ok := remote.Head()
	if !ok {
		return nil, nil
	}
	switch head.Kind {
	case Symbolic, Unborn:
		if head.Kind == Unborn || head.Object.IsZero() {
			return []RefEdit{symbolicHead(head.Target, msg)}, nil
		}
		return attach(head.Target, head.Object, msg), nil
	default:
		if head.Object.IsZero() {
			return nil, ErrDetachedWithoutObject
		}
		return Detach(head.Object, msg), nil
	}
}

func symbolicHead(target plumbing.ReferenceName, msg string) RefEdit {
	return RefEdit{
		Ref:     plumbing.NewSymbolicReference(plumbing.HEAD, target),
		Mode:    LogAndUpdate,
		Message: msg,
	}
}

// attach points HEAD at branch, moves branch to id and logs the move on HEAD.
func attach(branch plumbing.ReferenceName, id plumbing.Hash, msg string) []RefEdit {
	return []RefEdit{
		symbolicHead(branch, msg),
		{Ref: plumbing.NewHashReference(branch, id), Mode: LogAndUpdate, Message: msg},
		{Ref: plumbing.NewHashReference(plumbing.HEAD, id), Mode: LogOnly, Message: msg},
	}
}

func candidates(rev string) []plumbing.ReferenceName {
	if strings.HasPrefix(rev, "refs/") {
		return []plumbing.ReferenceName{plumbing.ReferenceName(rev)}
	}
	return []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(rev),
		plumbing.NewTagReferenceName(rev),
	}
}

func isFullHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
