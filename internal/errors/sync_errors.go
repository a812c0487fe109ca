package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// SyncError describes a failed synchronization of one destination.
type SyncError struct {
	Destination string // Local directory being synchronized
	URL         string // Remote URL with credentials removed
	Revision    string // Requested revision
	Backend     string // Backend that performed the work
	Err         error  // Underlying error
}

func (e *SyncError) Error() string {
	rev := e.Revision
	if rev == "" {
		rev = "HEAD"
	}
	return fmt.Sprintf("sync %s from %s@%s (%s backend): %v", e.Destination, e.URL, rev, e.Backend, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ProcessError is returned when an external command exits with a non-zero status.
type ProcessError struct {
	Command  []string // Program and arguments
	ExitCode int      // Exit status, -1 when the process was killed
	Stderr   string   // Captured standard error, if any
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("`%s` exited with status %d", strings.Join(e.Command, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// IsSyncError checks if an error is or wraps a SyncError
func IsSyncError(err error) bool {
	var se *SyncError
	return stderrors.As(err, &se)
}

// IsProcessError checks if an error is or wraps a ProcessError
func IsProcessError(err error) bool {
	var pe *ProcessError
	return stderrors.As(err, &pe)
}

// ExitCode returns the exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var pe *ProcessError
	if stderrors.As(err, &pe) {
		return pe.ExitCode, true
	}
	return 0, false
}

// IsCancelled checks if the error was caused by cancellation
func IsCancelled(err error) bool {
	return IsKind(err, Cancelled) || stderrors.Is(err, context.Canceled)
}

// IsMissingParent checks if the destination had no parent directory
func IsMissingParent(err error) bool {
	return IsKind(err, MissingParent)
}
