package testsupport

import (
	"context"
	"testing"

	"cinefile/internal/config"
	"cinefile/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// PutMovies caches movies directly, bypassing the catalog.
func PutMovies(t testing.TB, st *store.Store, movies ...store.Movie) {
	t.Helper()

	err := st.WithTx(context.Background(), func(tx *store.Tx) error {
		for i := range movies {
			if err := tx.PutMovie(context.Background(), &movies[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("put movies: %v", err)
	}
}

// RankedList writes a list whose memberships are movieIDs ranked 1..n.
func RankedList(t testing.TB, st *store.Store, listID string, movieIDs ...int64) *store.List {
	t.Helper()

	items := make([]store.ListItem, 0, len(movieIDs))
	for i, id := range movieIDs {
		items = append(items, store.ListItem{
			ID:      store.ItemID(listID, i+1),
			MovieID: id,
			Rank:    store.IntPtr(i + 1),
		})
	}
	list, err := st.ReplaceListMemberships(context.Background(), store.List{ID: listID, Name: listID}, items)
	if err != nil {
		t.Fatalf("replace memberships for %s: %v", listID, err)
	}
	return list
}
