package catalog

import (
	"errors"
	"fmt"

	"cinefile/internal/catalog/tmdb"
)

var (
	// ErrCredentialMissing signals that no catalog API key is configured.
	// Callers treat it as "unresolved", not as a failure.
	ErrCredentialMissing = errors.New("catalog credential missing")
	// ErrCatalogUnavailable wraps network, auth and HTTP failures. It is
	// retryable.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrNoMatch means the catalog answered but had no acceptable record.
	ErrNoMatch = errors.New("no catalog match")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, op, err)
}

// IsAuthFailure reports whether err came from the catalog rejecting the key.
func IsAuthFailure(err error) bool {
	var statusErr *tmdb.StatusError
	return errors.As(err, &statusErr) && statusErr.Unauthorized()
}

// ErrorKind classifies catalog errors for summaries and user messages:
// "no_credential", "no_match", "catalog_error", or "" for anything else.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialMissing):
		return "no_credential"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrCatalogUnavailable):
		return "catalog_error"
	default:
		return ""
	}
}
