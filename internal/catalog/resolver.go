package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"cinefile/internal/catalog/tmdb"
	"cinefile/internal/config"
	"cinefile/internal/logging"
	"cinefile/internal/store"
)

const (
	maxCandidates = 20
	maxCastNames  = 5

	// DefaultImageBaseURL prefixes relative poster and backdrop paths.
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w342"
)

// Candidate is a lightweight search match for interactive disambiguation.
type Candidate struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Year       *int     `json:"year,omitempty"`
	PosterPath string   `json:"posterPath,omitempty"`
	Rating     *float64 `json:"tmdbRating,omitempty"`
}

// Resolver turns free-text titles into catalog ids and fetches movie
// details. A Resolver without a client behaves as if no credential is
// configured: lookups return ErrCredentialMissing and searches are empty.
type Resolver struct {
	client    *throttledClient
	imageBase string
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	logger    *slog.Logger
	cacheTTL  time.Duration
	interval  time.Duration
	imageBase string
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolverOptions) { o.logger = logger }
}

// WithSearchCache caches search responses for ttl; zero disables caching.
func WithSearchCache(ttl time.Duration) Option {
	return func(o *resolverOptions) { o.cacheTTL = ttl }
}

// WithMinInterval spaces catalog requests by at least interval.
func WithMinInterval(interval time.Duration) Option {
	return func(o *resolverOptions) { o.interval = interval }
}

// WithImageBase overrides the image URL prefix.
func WithImageBase(base string) Option {
	return func(o *resolverOptions) { o.imageBase = base }
}

// New builds a Resolver around client. A nil client yields a resolver
// without credential.
func New(client tmdb.Searcher, opts ...Option) *Resolver {
	options := resolverOptions{imageBase: DefaultImageBaseURL}
	for _, opt := range opts {
		opt(&options)
	}
	r := &Resolver{
		imageBase: options.imageBase,
		logger:    logging.NewComponentLogger(options.logger, "catalog"),
	}
	if client != nil {
		r.client = newThrottledClient(client, options.cacheTTL, options.interval)
	}
	return r
}

// NewFromConfig builds a Resolver from the [tmdb] configuration section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Resolver, error) {
	opts := []Option{
		WithLogger(logger),
		WithSearchCache(cfg.TMDBSearchCacheTTL()),
		WithMinInterval(cfg.TMDBMinRequestInterval()),
	}
	if base := strings.TrimSpace(cfg.TMDB.ImageBaseURL); base != "" {
		opts = append(opts, WithImageBase(base))
	}
	if !cfg.HasTMDBKey() {
		return New(nil, opts...), nil
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithTimeout(cfg.TMDBRequestTimeout()))
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	return New(client, opts...), nil
}

// HasCredential reports whether catalog lookups can be made.
func (r *Resolver) HasCredential() bool {
	return r != nil && r.client != nil
}

// ResolveID searches the catalog for title, using year as a hint, and
// returns the id of the best scoring match.
func (r *Resolver) ResolveID(ctx context.Context, title string, year int) (int64, error) {
	if !r.HasCredential() {
		return 0, ErrCredentialMissing
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: empty title", ErrNoMatch)
	}
	resp, err := r.client.search(ctx, title, year)
	if err != nil {
		return 0, unavailable("search "+title, err)
	}
	best, ok := BestCandidate(title, year, resp.Results)
	if !ok || best.ID <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoMatch, title)
	}
	r.logger.Debug("resolved title",
		logging.String("title", title),
		logging.Int("year", year),
		logging.Int64(logging.FieldMovieID, best.ID),
		logging.Int("candidates", len(resp.Results)),
	)
	return best.ID, nil
}

// FetchDetails retrieves the catalog fields of a movie. User fields on the
// returned record are zero.
func (r *Resolver) FetchDetails(ctx context.Context, id int64) (store.Movie, error) {
	if !r.HasCredential() {
		return store.Movie{}, ErrCredentialMissing
	}
	details, err := r.client.details(ctx, id)
	if err != nil {
		var statusErr *tmdb.StatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			return store.Movie{}, fmt.Errorf("%w: movie %d", ErrNoMatch, id)
		}
		return store.Movie{}, unavailable(fmt.Sprintf("movie %d", id), err)
	}
	return movieFromDetails(details), nil
}

func movieFromDetails(d *tmdb.MovieDetails) store.Movie {
	directors := make([]string, 0, 1)
	for _, member := range d.Credits.Crew {
		if member.Job == "Director" {
			directors = append(directors, member.Name)
		}
	}
	cast := make([]string, 0, maxCastNames)
	for _, member := range d.Credits.Cast {
		if len(cast) == maxCastNames {
			break
		}
		cast = append(cast, member.Name)
	}
	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}
	return store.Movie{
		ID:           d.ID,
		Title:        d.Title,
		Year:         releaseYear(d.ReleaseDate),
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		Directors:    directors,
		Cast:         cast,
		TMDBRating:   roundRating(d.VoteAverage),
		Runtime:      d.Runtime,
		Genres:       genres,
		Overview:     d.Overview,
	}
}

// SearchCandidates returns up to 20 matches for query. Without a credential
// or with a blank query it returns an empty slice and no error.
func (r *Resolver) SearchCandidates(ctx context.Context, query string, year int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if !r.HasCredential() || query == "" {
		return []Candidate{}, nil
	}
	resp, err := r.client.search(ctx, query, year)
	if err != nil {
		return nil, unavailable("search "+query, err)
	}
	results := resp.Results
	if len(results) > maxCandidates {
		results = results[:maxCandidates]
	}
	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		candidates = append(candidates, Candidate{
			ID:         res.ID,
			Title:      res.Title,
			Year:       releaseYear(res.ReleaseDate),
			PosterPath: res.PosterPath,
			Rating:     roundRating(res.VoteAverage),
		})
	}
	return candidates, nil
}

// PosterURL resolves a relative image path against the resolver's base.
func (r *Resolver) PosterURL(path string) string {
	base := DefaultImageBaseURL
	if r != nil && r.imageBase != "" {
		base = r.imageBase
	}
	return PosterURL(base, path)
}

// PosterURL joins an image base and a relative poster or backdrop path.
// An empty path yields "".
func PosterURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + path
}

func roundRating(v float64) *float64 {
	rounded := math.Round(v*10) / 10
	return &rounded
}
