package refs

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRemote() RemoteRefs {
	return RemoteRefs{
		{Kind: Symbolic, Name: plumbing.HEAD, Target: "refs/heads/master", Object: plumbing.NewHash(commitA)},
		{Kind: Direct, Name: "refs/heads/master", Object: plumbing.NewHash(commitA)},
		{Kind: Direct, Name: "refs/heads/dev", Object: plumbing.NewHash(commitB)},
		{Kind: Direct, Name: "refs/tags/1.1.0", Object: plumbing.NewHash(tagObj), Peeled: plumbing.NewHash(commitB)},
		{Kind: Direct, Name: "refs/tags/light", Object: plumbing.NewHash(commitA)},
		{Kind: Direct, Name: "refs/pull/1/head", Object: plumbing.NewHash(commitB)},
	}
}

// summary renders edits as "<mode> <ref>" lines for compact assertions.
func summary(edits []RefEdit) []string {
	out := make([]string, 0, len(edits))
	for _, e := range edits {
		out = append(out, e.String())
	}
	return out
}

func TestPlanHead(t *testing.T) {
	tests := []struct {
		name   string
		remote RemoteRefs
		rev    string
		want   []string
	}{
		{
			name:   "remote symbolic HEAD",
			remote: sampleRemote(),
			rev:    "",
			want: []string{
				"update ref: refs/heads/master HEAD",
				"update " + commitA + " refs/heads/master",
				"log " + commitA + " HEAD",
			},
		},
		{
			name:   "explicit HEAD",
			remote: sampleRemote(),
			rev:    "HEAD",
			want: []string{
				"update ref: refs/heads/master HEAD",
				"update " + commitA + " refs/heads/master",
				"log " + commitA + " HEAD",
			},
		},
		{
			name:   "remote unborn HEAD",
			remote: RemoteRefs{{Kind: Unborn, Name: plumbing.HEAD, Target: "refs/heads/main"}},
			want:   []string{"update ref: refs/heads/main HEAD"},
		},
		{
			name:   "remote symbolic HEAD without object",
			remote: RemoteRefs{{Kind: Symbolic, Name: plumbing.HEAD, Target: "refs/heads/main"}},
			want:   []string{"update ref: refs/heads/main HEAD"},
		},
		{
			name:   "remote detached HEAD",
			remote: RemoteRefs{{Kind: Direct, Name: plumbing.HEAD, Object: plumbing.NewHash(commitB)}},
			want:   []string{"update " + commitB + " HEAD"},
		},
		{
			name:   "no remote HEAD",
			remote: RemoteRefs{{Kind: Direct, Name: "refs/heads/master", Object: plumbing.NewHash(commitA)}},
			want:   []string{},
		},
		{
			name:   "branch",
			remote: sampleRemote(),
			rev:    "dev",
			want: []string{
				"update ref: refs/heads/dev HEAD",
				"update " + commitB + " refs/heads/dev",
				"log " + commitB + " HEAD",
			},
		},
		{
			name:   "full branch name",
			remote: sampleRemote(),
			rev:    "refs/heads/dev",
			want: []string{
				"update ref: refs/heads/dev HEAD",
				"update " + commitB + " refs/heads/dev",
				"log " + commitB + " HEAD",
			},
		},
		{
			name:   "annotated tag is peeled",
			remote: sampleRemote(),
			rev:    "1.1.0",
			want:   []string{"update " + commitB + " HEAD"},
		},
		{
			name:   "lightweight tag",
			remote: sampleRemote(),
			rev:    "light",
			want:   []string{"update " + commitA + " HEAD"},
		},
		{
			name:   "other ref namespace",
			remote: sampleRemote(),
			rev:    "refs/pull/1/head",
			want:   []string{"update " + commitB + " HEAD"},
		},
		{
			name:   "commit id",
			remote: sampleRemote(),
			rev:    "dddddddddddddddddddddddddddddddddddddddd",
			want:   []string{"update dddddddddddddddddddddddddddddddddddddddd HEAD"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edits, err := PlanHead(tt.remote, tt.rev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary(edits))
			for _, e := range edits {
				assert.Nil(t, e.Expected)
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestPlanHead_Errors(t *testing.T) {
	_, err := PlanHead(RemoteRefs{{Kind: Direct, Name: plumbing.HEAD}}, "")
	assert.ErrorIs(t, err, ErrDetachedWithoutObject)

	_, err = PlanHead(sampleRemote(), "does-not-exist")
	assert.ErrorIs(t, err, ErrUnknownRevision)

	// abbreviated ids are resolved by the caller against local objects
	_, err = PlanHead(sampleRemote(), "dddddd")
	assert.ErrorIs(t, err, ErrUnknownRevision)

	_, err = PlanHead(RemoteRefs{{Kind: Direct, Name: "refs/tags/empty"}}, "empty")
	assert.ErrorIs(t, err, ErrUnknownRevision)
}

func TestDetach(t *testing.T) {
	edits := Detach(plumbing.NewHash(commitA), "msg")
	require.Len(t, edits, 1)
	assert.Equal(t, plumbing.HEAD, edits[0].Name())
	assert.Equal(t, LogAndUpdate, edits[0].Mode)
	assert.Equal(t, "msg", edits[0].Message)
}
