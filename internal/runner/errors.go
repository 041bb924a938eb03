package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrSkip matches every error created by Skip.
	ErrSkip = errors.New("skip")

	// ErrTransient marks failures that are likely to clear up after a
	// pause, such as rate limiting by a remote API.
	ErrTransient = errors.New("transient failure")

	errCached   = errors.New("already in cache")
	errFiltered = errors.New("filtered")
)

// SkipError reports that a page does not qualify for processing.
type SkipError struct {
	Reason string
	Err    error
}

// Skip returns a SkipError with a formatted reason.
func Skip(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// SkipCause returns a SkipError for reason caused by err.
func SkipCause(reason string, err error) error {
	return &SkipError{Reason: reason, Err: err}
}

// Error implements error.
func (e *SkipError) Error() string {
	if e.Err != nil {
		return "skip: " + e.Reason + ": " + e.Err.Error()
	}
	return "skip: " + e.Reason
}

// Is makes errors.Is(err, ErrSkip) match.
func (e *SkipError) Is(target error) bool {
	return target == ErrSkip
}

// Unwrap returns the cause.
func (e *SkipError) Unwrap() error {
	return e.Err
}

// Transient wraps err so that the runner backs off after it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// skipReason extracts the reason of a SkipError in err's chain.
func skipReason(err error) string {
	var se *SkipError
	if errors.As(err, &se) {
		if se.Err != nil {
			return se.Reason + ": " + se.Err.Error()
		}
		return se.Reason
	}
	return err.Error()
}
