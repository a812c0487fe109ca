package progress

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
)

var (
	// Match lines like:
	// Receiving objects:  67% (35484/52960), 236.76 MiB | 78.92 MiB/s
	// Counting objects: 100% (12/12), done.
	transferRegex = regexp.MustCompile(`^((?:Enumerating|Counting|Compressing|Receiving) objects|Resolving deltas):\s*(\d+)%\s*\((\d+)/(\d+)\)(?:,\s*([\d.]+)\s*([^|,]+)\|\s*([\d.]+)\s*([^,]+))?`)
	// Match completion lines like:
	// Receiving objects: 100% (52960/52960), 298.63 MiB | 81.39 MiB/s, done.
	completionRegex = regexp.MustCompile(`^((?:Enumerating|Counting|Compressing|Receiving) objects|Resolving deltas):\s*100%.*done`)
)

// Writer reformats the transfer progress printed by git and by remotes over
// the sideband channel. Lines are prefixed and one line is written per
// update, so progress stays readable in logs. Partial lines are buffered
// until their terminator arrives.
type Writer struct {
	prefix string
	w      io.Writer

	mu      sync.Mutex
	pending string
}

// NewWriter returns a Writer writing to w.
func NewWriter(prefix string, w io.Writer) *Writer {
	return &Writer{prefix: prefix, w: w}
}

func (pw *Writer) Write(p []byte) (int, error) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	data := pw.pending + string(p)
	// git redraws progress with carriage returns
	end := strings.LastIndexAny(data, "\r\n")
	if end < 0 {
		pw.pending = data
		return len(p), nil
	}
	pw.pending = data[end+1:]

	for _, line := range strings.FieldsFunc(data[:end], func(r rune) bool { return r == '\r' || r == '\n' }) {
		if err := pw.writeLine(line); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// Flush writes a buffered partial line.
func (pw *Writer) Flush() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	line := pw.pending
	pw.pending = ""
	if line == "" {
		return nil
	}
	return pw.writeLine(line)
}

func (pw *Writer) writeLine(line string) error {
	line = strings.TrimSpace(strings.TrimPrefix(line, "remote: "))
	if line == "" {
		return nil
	}

	if m := completionRegex.FindStringSubmatch(line); m != nil {
		_, err := fmt.Fprintf(pw.w, "%s%s: done\n", pw.prefix, m[1])
		return err
	}

	if m := transferRegex.FindStringSubmatch(line); m != nil {
		stage, percentage, current, total := m[1], m[2], m[3], m[4]
		if m[5] != "" {
			_, err := fmt.Fprintf(pw.w, "%s%s: %s%% (%s/%s) Size: %s %s, Speed: %s %s\n",
				pw.prefix, stage, percentage, current, total,
				m[5], strings.TrimSpace(m[6]), m[7], strings.TrimSpace(m[8]))
			return err
		}
		_, err := fmt.Fprintf(pw.w, "%s%s: %s%% (%s/%s)\n", pw.prefix, stage, percentage, current, total)
		return err
	}

	_, err := fmt.Fprintf(pw.w, "%s%s\n", pw.prefix, line)
	return err
}
