package main

import (
	"errors"
	"fmt"

	"cinefile/internal/catalog"
	"cinefile/internal/store"
)

// describeError appends an actionable hint to well known failures.
func describeError(err error) string {
	if err == nil {
		return ""
	}
	hint := ""
	switch {
	case errors.Is(err, catalog.ErrCredentialMissing):
		hint = "set tmdb.api_key in the config file or export TMDB_API_KEY"
	case catalog.IsAuthFailure(err):
		hint = "TMDB rejected the API key; check tmdb.api_key"
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		hint = "TMDB could not be reached; retry later"
	case errors.Is(err, catalog.ErrNoMatch):
		hint = "try `cinefile search` to find the TMDB id"
	case errors.Is(err, store.ErrListNotFound):
		hint = "run `cinefile lists` to see list ids"
	case errors.Is(err, store.ErrMovieNotFound):
		hint = "add the movie to a list or set a TMDB key so it can be fetched"
	case store.IsRetryable(err):
		hint = "nothing was saved; retry the command"
	}
	if hint == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v (%s)", err, hint)
}
