package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateMembership rejects adding a movie already present in a list.
	ErrDuplicateMembership = errors.New("movie is already in this list")
	ErrListNotFound        = errors.New("list not found")
	ErrMembershipNotFound  = errors.New("list item not found")
	ErrMovieNotFound       = errors.New("movie not found")
	ErrInvalidRating       = errors.New("rating must be between 0 and 10 in 0.5 steps")
	ErrInvalidList         = errors.New("list name is required")
)

// ErrorClassifier allows errors to declare their classification for
// user-facing messages.
type ErrorClassifier interface {
	ErrorKind() string
}

// WriteError reports a transaction that failed to commit. Nothing from the
// transaction was applied; the operation may be retried.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write failed (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *WriteError) ErrorKind() string { return "store_write" }

func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *WriteError
	if errors.As(err, &existing) {
		return err
	}
	return &WriteError{Op: op, Err: err}
}

// IsRetryable reports whether err is a failed write that left the store unchanged.
func IsRetryable(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// ErrorKind maps store errors to a short classification: "duplicate",
// "not_found", "validation", "store_write", or "" for anything else.
func ErrorKind(err error) string {
	var classifier ErrorClassifier
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateMembership):
		return "duplicate"
	case errors.Is(err, ErrListNotFound), errors.Is(err, ErrMembershipNotFound), errors.Is(err, ErrMovieNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRating), errors.Is(err, ErrInvalidList):
		return "validation"
	case errors.As(err, &classifier):
		return classifier.ErrorKind()
	default:
		return ""
	}
}
