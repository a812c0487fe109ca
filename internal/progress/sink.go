// Package progress reports the advance of long running operations such as
// checking out a tree.
package progress

// Event is emitted after each checked out entry.
type Event struct {
	Files      int64 // entries written so far
	TotalFiles int64 // entries in the tree
	Bytes      int64 // bytes written so far
}

// Sink receives progress events. A nil Sink is valid and drops them.
type Sink func(Event)

// Emit calls s if it is set.
func (s Sink) Emit(e Event) {
	if s != nil {
		s(e)
	}
}

// TrackerSink forwards file counts to t.
func TrackerSink(t Tracker) Sink {
	if t == nil {
		return nil
	}
	return func(e Event) {
		t.Update(e.Files, e.TotalFiles)
	}
}
