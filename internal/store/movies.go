package store

import (
	"context"
	"fmt"
	"math"
	"time"
)

// GetMovie fetches a cached movie; it returns nil, nil when absent.
func (s *Store) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	return getMovie(ensureContext(ctx), s.db, id)
}

// MoviesByID returns the cached movies among ids, keyed by id.
func (s *Store) MoviesByID(ctx context.Context, ids []int64) (map[int64]*Movie, error) {
	return moviesByID(ensureContext(ctx), s.db, ids)
}

// AllMovies returns every cached movie ordered by id.
func (s *Store) AllMovies(ctx context.Context) ([]Movie, error) {
	return queryMovies(ensureContext(ctx), s.db, `SELECT `+movieColumns+` FROM movies ORDER BY id`)
}

// RatedMovies returns movies with a positive personal rating.
func (s *Store) RatedMovies(ctx context.Context) ([]Movie, error) {
	return queryMovies(ensureContext(ctx), s.db,
		`SELECT `+movieColumns+` FROM movies WHERE my_rating > 0 ORDER BY id`)
}

// MissingMovieIDs returns the ids among ids that have no cached record.
func (s *Store) MissingMovieIDs(ctx context.Context, ids []int64) ([]int64, error) {
	cached, err := s.MoviesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(ids))
	var missing []int64
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// MergeMovieDetails caches catalog fields for a movie. Fields left empty in
// details keep their cached value; seen, rating and watched date are never
// touched.
func (s *Store) MergeMovieDetails(ctx context.Context, details Movie) (*Movie, error) {
	if details.ID <= 0 {
		return nil, fmt.Errorf("merge movie details: invalid id %d", details.ID)
	}
	var merged *Movie
	err := s.WithTx(ctx, func(tx *Tx) error {
		existing, err := tx.Movie(ctx, details.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			fresh := details
			fresh.Seen = false
			fresh.MyRating = nil
			fresh.WatchedAt = ""
			fresh.UpdatedAt = tx.Now()
			merged = &fresh
		} else {
			mergeCatalogFields(existing, &details)
			existing.UpdatedAt = tx.Now()
			merged = existing
		}
		return tx.PutMovie(ctx, merged)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func mergeCatalogFields(dst, src *Movie) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Year != nil {
		dst.Year = src.Year
	}
	if src.PosterPath != "" {
		dst.PosterPath = src.PosterPath
	}
	if src.BackdropPath != "" {
		dst.BackdropPath = src.BackdropPath
	}
	if src.Directors != nil {
		dst.Directors = src.Directors
	}
	if src.Cast != nil {
		dst.Cast = src.Cast
	}
	if src.TMDBRating != nil {
		dst.TMDBRating = src.TMDBRating
	}
	if src.Runtime != nil {
		dst.Runtime = src.Runtime
	}
	if src.Genres != nil {
		dst.Genres = src.Genres
	}
	if src.Overview != "" {
		dst.Overview = src.Overview
	}
}

// ValidRating reports whether rating lies in 0..10 on a 0.5 step.
func ValidRating(rating float64) bool {
	if math.IsNaN(rating) || rating < 0 || rating > 10 {
		return false
	}
	doubled := rating * 2
	return doubled == math.Trunc(doubled)
}

// RateMovie records a personal rating, marks the movie seen and stamps the
// watched date (today when watchedAt is empty).
func (s *Store) RateMovie(ctx context.Context, id int64, rating float64, watchedAt string) (*Movie, error) {
	if !ValidRating(rating) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRating, rating)
	}
	if watchedAt == "" {
		watchedAt = time.Now().Format("2006-01-02")
	}
	return s.updateMovie(ctx, id, func(m *Movie) {
		m.Seen = true
		m.MyRating = FloatPtr(rating)
		m.WatchedAt = watchedAt
	})
}

// SetSeen toggles the watched flag.
func (s *Store) SetSeen(ctx context.Context, id int64, seen bool) (*Movie, error) {
	return s.updateMovie(ctx, id, func(m *Movie) {
		m.Seen = seen
	})
}

func (s *Store) updateMovie(ctx context.Context, id int64, mutate func(*Movie)) (*Movie, error) {
	var updated *Movie
	err := s.WithTx(ctx, func(tx *Tx) error {
		movie, err := tx.Movie(ctx, id)
		if err != nil {
			return err
		}
		if movie == nil {
			return fmt.Errorf("movie %d: %w", id, ErrMovieNotFound)
		}
		mutate(movie)
		movie.UpdatedAt = tx.Now()
		updated = movie
		return tx.PutMovie(ctx, movie)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
