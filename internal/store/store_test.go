package store_test

import (
	"context"
	"errors"
	"testing"

	"cinefile/internal/store"
	"cinefile/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := st.CreateList(ctx, store.NewList{Name: "Favorites"}); err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	list, err := reopened.GetList(ctx, "favorites")
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	if list == nil || list.Name != "Favorites" {
		t.Fatalf("expected list to survive reopen, got %#v", list)
	}
}

func TestCreateListSuffixesCollidingSlugs(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		list, err := st.CreateList(ctx, store.NewList{Name: "My Favorite Films!"})
		if err != nil {
			t.Fatalf("CreateList failed: %v", err)
		}
		ids = append(ids, list.ID)
	}
	want := []string{"my-favorite-films", "my-favorite-films-2", "my-favorite-films-3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	if _, err := st.CreateList(ctx, store.NewList{Name: "   "}); !errors.Is(err, store.ErrInvalidList) {
		t.Fatalf("expected ErrInvalidList, got %v", err)
	}

	reserved, err := st.CreateList(ctx, store.NewList{Name: "Movies"})
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	if reserved.ID != "movies-2" {
		t.Fatalf("expected reserved id to be suffixed, got %q", reserved.ID)
	}
}

func TestAddMembershipRejectsDuplicates(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	list, err := st.CreateList(ctx, store.NewList{Name: "Watchlist"})
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	first, err := st.AddMembership(ctx, list.ID, 603, 0)
	if err != nil {
		t.Fatalf("AddMembership failed: %v", err)
	}
	if first.Rank == nil || *first.Rank != 1 || first.ID != "watchlist:1:603" {
		t.Fatalf("unexpected first item: %#v", first)
	}
	second, err := st.AddMembership(ctx, list.ID, 550, 0)
	if err != nil {
		t.Fatalf("AddMembership failed: %v", err)
	}
	if *second.Rank != 2 {
		t.Fatalf("expected rank 2, got %d", *second.Rank)
	}

	_, err = st.AddMembership(ctx, list.ID, 603, 10)
	if !errors.Is(err, store.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}
	if store.ErrorKind(err) != "duplicate" {
		t.Fatalf("ErrorKind = %q", store.ErrorKind(err))
	}

	items, err := st.ListItems(ctx, list.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items after duplicate rejection, got %d", len(items))
	}
	got, _ := st.GetList(ctx, list.ID)
	if got.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", got.ItemCount)
	}

	if _, err := st.AddMembership(ctx, "missing", 1, 0); !errors.Is(err, store.ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
}

func TestRemoveAndReplaceMembership(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.RankedList(t, st, "picks", 10, 20, 30)

	if _, err := st.ReplaceMembershipMovie(ctx, "picks", 20, 30); !errors.Is(err, store.ErrDuplicateMembership) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if _, err := st.ReplaceMembershipMovie(ctx, "picks", 99, 40); !errors.Is(err, store.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
	replaced, err := st.ReplaceMembershipMovie(ctx, "picks", 20, 40)
	if err != nil {
		t.Fatalf("ReplaceMembershipMovie failed: %v", err)
	}
	if replaced.MovieID != 40 || replaced.ID != "picks:2" || *replaced.Rank != 2 {
		t.Fatalf("unexpected replaced item: %#v", replaced)
	}

	if err := st.RemoveMembership(ctx, "picks", 10); err != nil {
		t.Fatalf("RemoveMembership failed: %v", err)
	}
	list, _ := st.GetList(ctx, "picks")
	if list.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", list.ItemCount)
	}
}

func TestReplaceListMembershipsReplacesNotMerges(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.RankedList(t, st, "imported", 1, 2, 3, 4)
	second := testsupport.RankedList(t, st, "imported", 5, 6)

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected creation time to be preserved: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	items, err := st.ListItems(ctx, "imported")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 2 || items[0].MovieID != 5 || items[1].MovieID != 6 {
		t.Fatalf("unexpected items after replace: %#v", items)
	}
	if second.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", second.ItemCount)
	}
}

func TestDeleteListCascadesButKeepsMovies(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.PutMovies(t, st, store.Movie{ID: 1, Title: "Vertigo"})
	testsupport.RankedList(t, st, "classics", 1)

	if err := st.DeleteList(ctx, "classics"); err != nil {
		t.Fatalf("DeleteList failed: %v", err)
	}
	items, err := st.ItemsByMovie(ctx, 1)
	if err != nil {
		t.Fatalf("ItemsByMovie failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected memberships to be deleted, got %d", len(items))
	}
	movie, err := st.GetMovie(ctx, 1)
	if err != nil || movie == nil {
		t.Fatalf("expected movie to be retained, got %v (err=%v)", movie, err)
	}
	if err := st.DeleteList(ctx, "classics"); !errors.Is(err, store.ErrListNotFound) {
		t.Fatalf("expected ErrListNotFound, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	boom := errors.New("boom")

	var notified int
	unsubscribe := st.Subscribe(func(store.Change) { notified++ })
	defer unsubscribe()

	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.PutList(ctx, &store.List{ID: "partial", Name: "Partial"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if store.IsRetryable(err) {
		t.Fatal("callback errors are not write failures")
	}
	list, err := st.GetList(ctx, "partial")
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	if list != nil {
		t.Fatal("expected rollback to discard the list")
	}
	if notified != 0 {
		t.Fatalf("expected no notifications for rolled back tx, got %d", notified)
	}
}

func TestSubscribeReceivesCommittedChanges(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var changes []store.Change
	unsubscribe := st.Subscribe(func(c store.Change) { changes = append(changes, c) })

	testsupport.PutMovies(t, st, store.Movie{ID: 7, Title: "Se7en"})
	if _, err := st.RateMovie(ctx, 7, 9, ""); err != nil {
		t.Fatalf("RateMovie failed: %v", err)
	}
	unsubscribe()
	if _, err := st.SetSeen(ctx, 7, false); err != nil {
		t.Fatalf("SetSeen failed: %v", err)
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes before unsubscribe, got %d", len(changes))
	}
	last := changes[1]
	if !last.Has(store.KindMovies) || last.Has(store.KindLists) {
		t.Fatalf("unexpected kinds: %b", last.Kinds)
	}
	if len(last.MovieIDs) != 1 || last.MovieIDs[0] != 7 {
		t.Fatalf("unexpected movie ids: %v", last.MovieIDs)
	}
}

func TestRateMovieValidatesSteps(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.PutMovies(t, st, store.Movie{ID: 11, Title: "Heat"})

	for _, bad := range []float64{-0.5, 10.5, 7.25} {
		if _, err := st.RateMovie(ctx, 11, bad, ""); !errors.Is(err, store.ErrInvalidRating) {
			t.Fatalf("rating %v: expected ErrInvalidRating, got %v", bad, err)
		}
	}
	movie, err := st.RateMovie(ctx, 11, 8.5, "2024-05-01")
	if err != nil {
		t.Fatalf("RateMovie failed: %v", err)
	}
	if !movie.Seen || movie.MyRating == nil || *movie.MyRating != 8.5 || movie.WatchedAt != "2024-05-01" {
		t.Fatalf("unexpected rated movie: %#v", movie)
	}
	if _, err := st.RateMovie(ctx, 12, 5, ""); !errors.Is(err, store.ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestMergeMovieDetailsPreservesUserFields(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.PutMovies(t, st, store.Movie{ID: 5, Title: "Alien", Seen: true, MyRating: store.FloatPtr(9), WatchedAt: "2023-01-01"})

	merged, err := st.MergeMovieDetails(ctx, store.Movie{
		ID:      5,
		Title:   "Alien",
		Runtime: store.IntPtr(117),
		Genres:  []string{"Horror", "Science Fiction"},
		Seen:    false,
	})
	if err != nil {
		t.Fatalf("MergeMovieDetails failed: %v", err)
	}
	if !merged.Seen || *merged.MyRating != 9 || merged.WatchedAt != "2023-01-01" {
		t.Fatalf("user fields changed: %#v", merged)
	}
	stored, _ := st.GetMovie(ctx, 5)
	if stored.Runtime == nil || *stored.Runtime != 117 || len(stored.Genres) != 2 {
		t.Fatalf("catalog fields not merged: %#v", stored)
	}
	if stored.NeedsEnrichment() {
		t.Fatal("expected enriched movie")
	}
}

func TestWipeAllClearsSettings(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.PutMovies(t, st, store.Movie{ID: 1, Title: "Ran"})
	testsupport.RankedList(t, st, "kurosawa", 1)
	if err := st.PutSetting(ctx, store.SettingSeedCompleted, "true"); err != nil {
		t.Fatalf("PutSetting failed: %v", err)
	}

	if err := st.ClearLists(ctx); err != nil {
		t.Fatalf("ClearLists failed: %v", err)
	}
	stats, _ := st.Stats(ctx)
	if stats.Lists != 0 || stats.Items != 0 || stats.Movies != 1 {
		t.Fatalf("unexpected stats after ClearLists: %+v", stats)
	}

	if err := st.WipeAll(ctx); err != nil {
		t.Fatalf("WipeAll failed: %v", err)
	}
	stats, _ = st.Stats(ctx)
	if stats != (store.Stats{}) {
		t.Fatalf("expected empty store, got %+v", stats)
	}
	if _, ok, _ := st.Setting(ctx, store.SettingSeedCompleted); ok {
		t.Fatal("expected seed flag to be cleared")
	}
}

func TestMovieArraysKeepNilDistinctFromEmpty(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.PutMovies(t, st,
		store.Movie{ID: 1, Title: "Unfetched"},
		store.Movie{ID: 2, Title: "No Genres", Genres: []string{}},
	)
	movies, err := st.MoviesByID(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("MoviesByID failed: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 cached movies, got %d", len(movies))
	}
	if movies[1].Genres != nil {
		t.Fatalf("expected nil genres, got %#v", movies[1].Genres)
	}
	if movies[2].Genres == nil || len(movies[2].Genres) != 0 {
		t.Fatalf("expected empty genres, got %#v", movies[2].Genres)
	}
	missing, err := st.MissingMovieIDs(ctx, []int64{1, 3, 3, 4})
	if err != nil {
		t.Fatalf("MissingMovieIDs failed: %v", err)
	}
	if len(missing) != 2 || missing[0] != 3 || missing[1] != 4 {
		t.Fatalf("missing = %v", missing)
	}
}

func TestValidRating(t *testing.T) {
	tests := []struct {
		rating float64
		want   bool
	}{
		{0, true},
		{0.5, true},
		{10, true},
		{9.5, true},
		{3.3, false},
		{-1, false},
		{11, false},
	}
	for _, tt := range tests {
		if got := store.ValidRating(tt.rating); got != tt.want {
			t.Errorf("ValidRating(%v) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}
