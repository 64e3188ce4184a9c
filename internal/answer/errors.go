package answer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the question id does not exist.
	ErrNotFound = errors.New("question not found")
	// ErrAlreadyResolved is returned when resolved questions are locked.
	ErrAlreadyResolved = errors.New("question has already been answered")
)

// ValidationError carries a reason that is safe, and meant, to be shown
// to the user verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a storage failure on the critical path. Its
// Error text is generic; the cause is available via Unwrap for logging.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "Failed to save answer" }

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
