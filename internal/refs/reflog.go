package refs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// logsDir holds one log file per reference, mirroring the refs/ layout.
const logsDir = "logs"

// ReflogEntry is one line of a reference log.
type ReflogEntry struct {
	Old, New  plumbing.Hash
	Committer Signature
	When      time.Time
	Message   string
}

func (e ReflogEntry) String() string {
	msg := strings.Join(strings.Fields(e.Message), " ")
	return fmt.Sprintf("%s %s %s <%s> %d %s\t%s\n",
		e.Old, e.New, e.Committer.Name, e.Committer.Email, e.When.Unix(), e.When.Format("-0700"), msg)
}

// writeLogs appends an entry for every edit that moves a reference to an id.
// Symbolic updates are recorded by their accompanying log-only edit.
func (t *Transaction) writeLogs(edits []RefEdit, oldIDs map[plumbing.ReferenceName]plumbing.Hash) error {
	if t.fs == nil {
		return nil
	}
	now := t.now()
	for _, e := range edits {
		if e.Ref.Type() != plumbing.HashReference {
			continue
		}
		entry := ReflogEntry{
			Old:       oldIDs[e.Name()],
			New:       e.Ref.Hash(),
			Committer: t.Committer,
			When:      now,
			Message:   e.Message,
		}
		if err := appendReflog(t.fs, e.Name(), entry); err != nil {
			return fmt.Errorf("write log of %s: %w", e.Name(), err)
		}
	}
	return nil
}

func appendReflog(fs billy.Filesystem, name plumbing.ReferenceName, entry ReflogEntry) (err error) {
	f, err := fs.OpenFile(fs.Join(logsDir, name.String()), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = f.Write([]byte(entry.String()))
	return err
}
