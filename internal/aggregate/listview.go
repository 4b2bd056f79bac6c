package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cinefile/internal/store"
)

// SortKey selects the ordering of a single list view.
type SortKey string

const (
	SortByRank     SortKey = "rank"
	SortByTitle    SortKey = "title"
	SortByYear     SortKey = "year"
	SortByDirector SortKey = "director"
)

// ParseSortKey validates a user supplied sort key; "" means rank.
func ParseSortKey(value string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(value))); key {
	case "":
		return SortByRank, nil
	case SortByRank, SortByTitle, SortByYear, SortByDirector:
		return key, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want rank, title, year or director)", value)
	}
}

// Entry is one membership of a single list joined to its movie.
type Entry struct {
	Rank        *int        `json:"rank,omitempty"`
	Movie       store.Movie `json:"movie"`
	Placeholder bool        `json:"placeholder,omitempty"`
}

// Row converts the entry for backfill.
func (e Entry) Row(listID string) Row {
	return Row{
		Movie:       e.Movie,
		Placeholder: e.Placeholder,
		Lists:       []ListRank{{ListID: listID, Rank: e.Rank}},
	}
}

// ListView returns the memberships of one list joined to cached movies and
// ordered by key. Unranked entries sort after ranked ones in ascending rank
// order.
func (e *Engine) ListView(ctx context.Context, listID string, key SortKey, desc bool) (*store.List, []Entry, error) {
	list, err := e.store.GetList(ctx, listID)
	if err != nil {
		return nil, nil, err
	}
	if list == nil {
		return nil, nil, fmt.Errorf("list %q: %w", listID, store.ErrListNotFound)
	}
	items, err := e.store.ListItems(ctx, listID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MovieID)
	}
	movies, err := e.store.MoviesByID(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entry := Entry{Rank: item.Rank}
		if movie, ok := movies[item.MovieID]; ok {
			entry.Movie = *movie
		} else {
			entry.Movie = store.Movie{ID: item.MovieID, Title: store.PlaceholderTitle(item.MovieID)}
			entry.Placeholder = true
		}
		entries = append(entries, entry)
	}

	less := entryLess(key)
	sort.SliceStable(entries, func(i, j int) bool {
		if desc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
	return list, entries, nil
}

func entryLess(key SortKey) func(a, b Entry) bool {
	switch key {
	case SortByTitle:
		return func(a, b Entry) bool {
			return strings.ToLower(a.Movie.Title) < strings.ToLower(b.Movie.Title)
		}
	case SortByYear:
		return func(a, b Entry) bool {
			return intOrZero(a.Movie.Year) < intOrZero(b.Movie.Year)
		}
	case SortByDirector:
		return func(a, b Entry) bool {
			return strings.ToLower(firstDirector(a.Movie)) < strings.ToLower(firstDirector(b.Movie))
		}
	default:
		return func(a, b Entry) bool {
			switch {
			case a.Rank == nil:
				return false
			case b.Rank == nil:
				return true
			default:
				return *a.Rank < *b.Rank
			}
		}
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func firstDirector(m store.Movie) string {
	if len(m.Directors) == 0 {
		return ""
	}
	return m.Directors[0]
}
