package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cinefile/internal/logging"
	"cinefile/internal/store"
)

// resolveMovieArg accepts a TMDB id or a title resolved through the catalog.
func resolveMovieArg(ctx context.Context, a *app, arg string, year int) (int64, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if id <= 0 {
			return 0, fmt.Errorf("invalid movie id %d", id)
		}
		return id, nil
	}
	return a.resolver.ResolveID(ctx, arg, year)
}

// ensureMovie returns the cached movie, fetching and caching it first when a
// catalog credential is available.
func ensureMovie(ctx context.Context, a *app, id int64) (*store.Movie, error) {
	movie, err := a.store.GetMovie(ctx, id)
	if err != nil || movie != nil {
		return movie, err
	}
	if !a.resolver.HasCredential() {
		return nil, fmt.Errorf("movie %d: %w", id, store.ErrMovieNotFound)
	}
	details, err := a.resolver.FetchDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.store.MergeMovieDetails(ctx, details)
}

// cacheMovieBestEffort fetches details for a newly referenced movie and logs
// rather than returns failures.
func cacheMovieBestEffort(ctx context.Context, a *app, id int64) {
	if !a.resolver.HasCredential() {
		return
	}
	if _, err := ensureMovie(ctx, a, id); err != nil {
		logging.WarnWithContext(a.logger, "movie detail fetch failed", "detail_fetch_failed",
			logging.Int64(logging.FieldMovieID, id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "movie shows as a placeholder until backfilled"),
		)
	}
}
