package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"cinefile/internal/logging"
	"cinefile/internal/store"
)

// DetailFetcher is the subset of catalog.Resolver used for backfill.
type DetailFetcher interface {
	HasCredential() bool
	FetchDetails(ctx context.Context, id int64) (store.Movie, error)
}

// ListRank records one list a movie appears in and its rank there.
type ListRank struct {
	ListID string `json:"listId"`
	Rank   *int   `json:"rank,omitempty"`
}

// Row is one movie in the cross-list view.
type Row struct {
	Movie store.Movie `json:"movie"`
	// Placeholder is set when the movie has no cached record yet.
	Placeholder bool       `json:"placeholder,omitempty"`
	Lists       []ListRank `json:"lists"`
	// Score is the mean of rank/itemCount over contributing lists; lower is
	// better. Nil when no list supplies a usable rank and count.
	Score *float64 `json:"score,omitempty"`
}

// NeedsEnrichment reports whether the row should be queued for backfill.
func (r Row) NeedsEnrichment() bool {
	return r.Placeholder || r.Movie.NeedsEnrichment()
}

// Engine computes aggregated views and owns the set of movie ids whose
// details are currently being fetched.
type Engine struct {
	store     *store.Store
	fetcher   DetailFetcher
	batchSize int
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
	// fetched holds ids merged by this engine; the catalog may still lack
	// their runtime or genres, so they are not claimed again.
	fetched map[int64]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize caps how many ids one Backfill call claims.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "aggregate")
	}
}

const defaultBatchSize = 5

// New creates an Engine. fetcher may be nil when backfill is not needed.
func New(st *store.Store, fetcher DetailFetcher, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		fetcher:   fetcher,
		batchSize: defaultBatchSize,
		logger:    logging.NewComponentLogger(nil, "aggregate"),
		inFlight:  make(map[int64]struct{}),
		fetched:   make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Aggregate builds the cross-list view over listIDs, or over every list when
// listIDs is empty. Rows are returned in SortRows order.
func (e *Engine) Aggregate(ctx context.Context, listIDs []string) ([]Row, error) {
	items, err := e.store.AllItems(ctx)
	if err != nil {
		return nil, err
	}
	lists, err := e.store.Lists(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(lists))
	for _, l := range lists {
		counts[l.ID] = l.ItemCount
	}

	selected := make(map[string]struct{}, len(listIDs))
	for _, id := range listIDs {
		selected[id] = struct{}{}
	}

	var order []int64
	groups := make(map[int64][]ListRank)
	for _, item := range items {
		if len(selected) > 0 {
			if _, ok := selected[item.ListID]; !ok {
				continue
			}
		}
		if _, seen := groups[item.MovieID]; !seen {
			order = append(order, item.MovieID)
		}
		groups[item.MovieID] = append(groups[item.MovieID], ListRank{ListID: item.ListID, Rank: item.Rank})
	}

	movies, err := e.store.MoviesByID(ctx, order)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(order))
	for _, id := range order {
		row := Row{Lists: groups[id], Score: score(groups[id], counts)}
		if movie, ok := movies[id]; ok {
			row.Movie = *movie
		} else {
			row.Movie = store.Movie{ID: id, Title: store.PlaceholderTitle(id)}
			row.Placeholder = true
		}
		rows = append(rows, row)
	}
	SortRows(rows)
	return rows, nil
}

func score(ranks []ListRank, counts map[string]int) *float64 {
	var (
		sum   float64
		parts int
	)
	for _, lr := range ranks {
		count := counts[lr.ListID]
		if lr.Rank == nil || *lr.Rank <= 0 || count <= 0 {
			continue
		}
		sum += float64(*lr.Rank) / float64(count)
		parts++
	}
	if parts == 0 {
		return nil
	}
	mean := sum / float64(parts)
	return &mean
}

// SortRows orders rows by ascending score with undefined scores last, then
// by case-insensitive title. The sort is stable.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Score, rows[j].Score
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a < *b
		}
		return strings.ToLower(rows[i].Movie.Title) < strings.ToLower(rows[j].Movie.Title)
	})
}
