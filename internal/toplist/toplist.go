package toplist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cinefile/internal/store"
)

const source = "User"

// Name returns the display name for a top list of n movies.
func Name(n int) string {
	return fmt.Sprintf("Your Top %d List", n)
}

// Rank orders rated movies by rating desc, then TMDB rating desc, then title.
func Rank(movies []store.Movie) []store.Movie {
	ranked := make([]store.Movie, 0, len(movies))
	for _, m := range movies {
		if m.MyRating != nil && *m.MyRating > 0 {
			ranked = append(ranked, m)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if *a.MyRating != *b.MyRating {
			return *a.MyRating > *b.MyRating
		}
		if ra, rb := tmdbRating(a), tmdbRating(b); ra != rb {
			return ra > rb
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
	return ranked
}

func tmdbRating(m store.Movie) float64 {
	if m.TMDBRating == nil {
		return 0
	}
	return *m.TMDBRating
}

// Recompute rewrites the top list from the current ratings in one
// transaction. With no rated movies and no existing list nothing is created,
// so the first-run seed gate is not tripped by an empty top list.
func Recompute(ctx context.Context, st *store.Store) (*store.List, error) {
	rated, err := st.RatedMovies(ctx)
	if err != nil {
		return nil, err
	}
	ranked := Rank(rated)

	var result *store.List
	err = st.WithTx(ctx, func(tx *store.Tx) error {
		list, err := tx.List(ctx, store.TopListID)
		if err != nil {
			return err
		}
		if list == nil {
			if len(ranked) == 0 {
				return nil
			}
			list = &store.List{
				ID:         store.TopListID,
				Slug:       source,
				Source:     source,
				CreatedBy:  store.CreatedBySystem,
				Visibility: store.VisibilityPrivate,
			}
		}
		if list.Visibility == "" {
			list.Visibility = store.VisibilityPrivate
		}
		list.Name = Name(len(ranked))
		list.UpdatedAt = tx.Now()
		if err := tx.PutList(ctx, list); err != nil {
			return err
		}
		if err := tx.DeleteItemsByList(ctx, store.TopListID); err != nil {
			return err
		}
		items := make([]store.ListItem, 0, len(ranked))
		for idx, m := range ranked {
			items = append(items, store.ListItem{
				ID:      store.ItemID(store.TopListID, idx+1),
				ListID:  store.TopListID,
				MovieID: m.ID,
				Rank:    store.IntPtr(idx + 1),
			})
		}
		if err := tx.PutItems(ctx, items); err != nil {
			return err
		}
		list.ItemCount, err = tx.RecountList(ctx, store.TopListID)
		result = list
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recompute top list: %w", err)
	}
	return result, nil
}
