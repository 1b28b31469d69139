package domain

import (
	"errors"
)

// Failure classes of the monitor-and-reclaim core. None of them is ever
// allowed to escape into the scheduling loop as a panic.
var (
	// ErrPrivilegeUnavailable means the elevated session could not be opened
	// or communicated with. It is not a command failure.
	ErrPrivilegeUnavailable = errors.New("privileged channel unavailable")

	// ErrProbeIndeterminate means neither the unprivileged nor the privileged
	// capacity query produced usable data.
	ErrProbeIndeterminate = errors.New("volume usage could not be determined")

	// ErrDeletionFailed means a victim could not be removed by either path.
	ErrDeletionFailed = errors.New("deletion failed")

	// ErrSafetyRefusal means a recursive delete targeted a protected path.
	ErrSafetyRefusal = errors.New("refusing to delete protected path")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNotDirectory  = errors.New("not a directory")
)

// SkippableError represents an error that can be logged and skipped.
// Processing continues with the next candidate when this error occurs.
type SkippableError struct {
	Err     error
	Context string
}

// Error returns the error message
func (e *SkippableError) Error() string {
	if e.Context != "" {
		if e.Err != nil {
			return e.Context + ": " + e.Err.Error()
		}
		return e.Context
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "skippable error"
}

// Unwrap returns the underlying error
func (e *SkippableError) Unwrap() error {
	return e.Err
}

// NewSkippableError creates a new skippable error
func NewSkippableError(err error, context string) *SkippableError {
	return &SkippableError{Err: err, Context: context}
}

// IsSkippable returns true if the error can be skipped
func IsSkippable(err error) bool {
	var se *SkippableError
	return errors.As(err, &se)
}
