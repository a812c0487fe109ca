package refs

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/lockfile"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"k8s.io/klog/v2"
)

// ErrUnexpectedValue is returned when a reference does not hold the value an
// edit expects.
var ErrUnexpectedValue = stderrors.New("reference has unexpected value")

// Signature identifies who changed a reference in its log.
type Signature struct {
	Name  string
	Email string
}

var defaultCommitter = Signature{Name: "gitsync", Email: "gitsync@localhost"}

// CommitterFor reads user.name and user.email from the global configuration.
func CommitterFor(repo *git.Repository) Signature {
	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil || cfg.User.Name == "" || cfg.User.Email == "" {
		return defaultCommitter
	}
	return Signature{Name: cfg.User.Name, Email: cfg.User.Email}
}

// Transaction applies a set of edits to the references of one repository.
// Either every update lands or the previous values are restored.
type Transaction struct {
	st storer.ReferenceStorer

	// fs is the git directory. Repositories without one get neither lock
	// files nor logs.
	fs billy.Filesystem

	Committer Signature
	now       func() time.Time
}

// NewTransaction prepares a transaction on repo.
func NewTransaction(repo *git.Repository) *Transaction {
	t := &Transaction{
		st:        repo.Storer,
		Committer: CommitterFor(repo),
		now:       time.Now,
	}
	if fss, ok := repo.Storer.(interface{ Filesystem() billy.Filesystem }); ok {
		t.fs = fss.Filesystem()
	}
	return t
}

// Commit locks every updated reference, failing immediately if one is
// already locked, checks expected values, applies the updates, appends the
// reflogs and releases the locks. Loose references are packed afterwards.
func (t *Transaction) Commit(ctx context.Context, edits []RefEdit) error {
	const op = "refs.commit"
	if len(edits) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.E(op, errors.Cancelled, err)
	}

	locks, err := t.lock(edits)
	if err != nil {
		return errors.E(op, errors.RefTransaction, err)
	}
	defer release(locks)

	prev := make(map[plumbing.ReferenceName]*plumbing.Reference, len(edits))
	oldIDs := make(map[plumbing.ReferenceName]plumbing.Hash, len(edits))
	for _, e := range edits {
		name := e.Name()
		if _, seen := oldIDs[name]; seen {
			continue
		}
		ref, err := t.st.Reference(name)
		switch {
		case err == nil:
			prev[name] = ref
		case stderrors.Is(err, plumbing.ErrReferenceNotFound):
		default:
			return errors.E(op, errors.RefTransaction, fmt.Errorf("read %s: %w", name, err))
		}
		oldIDs[name] = t.resolve(name)
	}

	for _, e := range edits {
		if e.Expected != nil && !sameRef(prev[e.Name()], e.Expected) {
			return errors.E(op, errors.RefTransaction, fmt.Errorf("%w: %s", ErrUnexpectedValue, e.Name()))
		}
	}

	var applied []plumbing.ReferenceName
	for _, e := range edits {
		if e.Mode == LogOnly {
			continue
		}
		if err := t.st.SetReference(e.Ref); err != nil {
			t.rollback(applied, prev)
			return errors.E(op, errors.RefTransaction, fmt.Errorf("set %s: %w", e.Name(), err))
		}
		applied = append(applied, e.Name())
		klog.V(2).Infof("ref %s (%s)", e, e.Message)
	}

	if err := t.writeLogs(edits, oldIDs); err != nil {
		t.rollback(applied, prev)
		return errors.E(op, errors.RefTransaction, err)
	}

	release(locks)
	locks = nil

	if err := t.st.PackRefs(); err != nil {
		klog.Warningf("failed to pack references: %v", err)
	}
	return nil
}

func (t *Transaction) lock(edits []RefEdit) ([]*lockfile.Lock, error) {
	if t.fs == nil {
		return nil, nil
	}
	var locks []*lockfile.Lock
	seen := make(map[plumbing.ReferenceName]bool, len(edits))
	for _, e := range edits {
		if e.Mode == LogOnly || seen[e.Name()] {
			continue
		}
		seen[e.Name()] = true
		l, err := lockfile.Acquire(t.fs, e.Name().String())
		if err != nil {
			release(locks)
			return nil, err
		}
		locks = append(locks, l)
	}
	return locks, nil
}

func release(locks []*lockfile.Lock) {
	for _, l := range locks {
		if err := l.Release(); err != nil {
			klog.Warningf("failed to release lock on %s: %v", l.Path(), err)
		}
	}
}

func (t *Transaction) resolve(name plumbing.ReferenceName) plumbing.Hash {
	ref, err := storer.ResolveReference(t.st, name)
	if err != nil {
		return plumbing.ZeroHash
	}
	return ref.Hash()
}

func (t *Transaction) rollback(applied []plumbing.ReferenceName, prev map[plumbing.ReferenceName]*plumbing.Reference) {
	for i := len(applied) - 1; i >= 0; i-- {
		name := applied[i]
		var err error
		if p := prev[name]; p != nil {
			err = t.st.SetReference(p)
		} else {
			err = t.st.RemoveReference(name)
		}
		if err != nil {
			klog.Warningf("failed to restore %s: %v", name, err)
		}
	}
}

func sameRef(a, b *plumbing.Reference) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Type() == b.Type() && a.Hash() == b.Hash() && a.Target() == b.Target()
}
