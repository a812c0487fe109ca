package errors

import (
	stderrors "errors"
	"fmt"
)

// OperationError represents an error that occurred during a git operation
type OperationError struct {
	Op   string // The operation being performed
	Kind Kind   // Classification of the failure
	Err  error  // The underlying error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e.Err == nil {
		if e.Kind == Other {
			return e.Op
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Err
}

// New creates a new OperationError
func New(op string, err error) *OperationError {
	return &OperationError{
		Op:  op,
		Err: err,
	}
}

// E creates a new OperationError of the given kind.
func E(op string, kind Kind, err error) *OperationError {
	return &OperationError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Errorf is E with a formatted underlying error.
func Errorf(op string, kind Kind, format string, args ...interface{}) *OperationError {
	return E(op, kind, fmt.Errorf(format, args...))
}

// Is implements error matching for OperationError. An empty Op or an Other
// kind on the target matches any value.
func (e *OperationError) Is(target error) bool {
	t, ok := target.(*OperationError)
	if !ok {
		return false
	}
	if t.Op != "" && e.Op != t.Op {
		return false
	}
	if t.Kind != Other && e.Kind != t.Kind {
		return false
	}
	return t.Op != "" || t.Kind != Other
}

// KindOf returns the first kind other than Other found in the chain of err.
func KindOf(err error) Kind {
	for err != nil {
		var op *OperationError
		if !stderrors.As(err, &op) {
			return Other
		}
		if op.Kind != Other {
			return op.Kind
		}
		err = op.Err
	}
	return Other
}

// IsKind reports whether any error in the chain of err has the given kind.
func IsKind(err error, kind Kind) bool {
	return stderrors.Is(err, &OperationError{Kind: kind})
}
