package backup_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cinefile/internal/backup"
	"cinefile/internal/store"
	"cinefile/internal/testsupport"
)

func populated(t *testing.T) *store.Store {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.PutMovies(t, st,
		store.Movie{ID: 949, Title: "Heat", Year: store.IntPtr(1995), Genres: []string{"Crime"}},
		store.Movie{ID: 348, Title: "Alien", Year: store.IntPtr(1979)},
	)
	if _, err := st.RateMovie(context.Background(), 949, 9.5, "2026-03-01"); err != nil {
		t.Fatalf("RateMovie failed: %v", err)
	}
	testsupport.RankedList(t, st, "picks", 949, 348, 11645)
	return st
}

func TestExportWritesDocument(t *testing.T) {
	st := populated(t)
	var buf bytes.Buffer
	counts, err := backup.Export(context.Background(), st, &buf)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if counts != (backup.Counts{Movies: 2, Lists: 1, Items: 3}) {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("export is not json: %v", err)
	}
	for _, key := range []string{"schema", "exportedAt", "movies", "lists", "listItems"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("export missing %q", key)
		}
	}
}

func TestImportRoundTripWithClearFirst(t *testing.T) {
	src := populated(t)
	var buf bytes.Buffer
	if _, err := backup.Export(context.Background(), src, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.PutMovies(t, dst, store.Movie{ID: 1, Title: "Leftover"})
	testsupport.RankedList(t, dst, "old", 1)

	counts, err := backup.Import(ctx, dst, bytes.NewReader(buf.Bytes()), backup.Options{ClearFirst: true})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if counts.Items != 3 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if m, _ := dst.GetMovie(ctx, 1); m != nil {
		t.Fatal("expected ClearFirst to remove leftover movie")
	}
	if l, _ := dst.GetList(ctx, "old"); l != nil {
		t.Fatal("expected ClearFirst to remove leftover list")
	}
	heat, _ := dst.GetMovie(ctx, 949)
	if heat == nil || heat.MyRating == nil || *heat.MyRating != 9.5 || !heat.Seen || heat.WatchedAt != "2026-03-01" {
		t.Fatalf("user fields not restored: %#v", heat)
	}
	list, _ := dst.GetList(ctx, "picks")
	if list == nil || list.ItemCount != 3 {
		t.Fatalf("unexpected restored list: %#v", list)
	}
	items, _ := dst.ListItems(ctx, "picks")
	if items[2].MovieID != 11645 || *items[2].Rank != 3 {
		t.Fatalf("unexpected restored items: %#v", items)
	}
}

func TestImportMergesWithoutClear(t *testing.T) {
	src := populated(t)
	var buf bytes.Buffer
	if _, err := backup.Export(context.Background(), src, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	dst := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.PutMovies(t, dst, store.Movie{ID: 1, Title: "Kept"})

	if _, err := backup.Import(context.Background(), dst, &buf, backup.Options{}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	stats, _ := dst.Stats(context.Background())
	if stats.Movies != 3 || stats.Lists != 1 {
		t.Fatalf("unexpected stats after merge: %+v", stats)
	}
}

func TestImportRecountsExistingListsReferencedByItems(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.RankedList(t, st, "local", 1, 2)

	input := `{"schema": 1, "listItems": [{"id": "local:3", "listId": "local", "movieId": 3, "rank": 3}]}`
	if _, err := backup.Import(ctx, st, strings.NewReader(input), backup.Options{}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	list, err := st.GetList(ctx, "local")
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	items, err := st.ListItems(ctx, "local")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if list.ItemCount != 3 || len(items) != 3 {
		t.Fatalf("itemCount = %d, live = %d, want 3", list.ItemCount, len(items))
	}
}

func TestImportRejectsItemsForUnknownList(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	input := `{"schema": 1, "listItems": [{"id": "ghost:1", "listId": "ghost", "movieId": 3}]}`
	_, err := backup.Import(ctx, st, strings.NewReader(input), backup.Options{})
	if !errors.Is(err, store.ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
	if items, _ := st.ListItems(ctx, "ghost"); len(items) != 0 {
		t.Fatalf("expected no orphan items, got %d", len(items))
	}
}

func TestImportRejectsUnknownSchema(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	for _, input := range []string{`{"schema": 0}`, `{"schema": 99}`, `not json`} {
		if _, err := backup.Import(context.Background(), st, strings.NewReader(input), backup.Options{}); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
