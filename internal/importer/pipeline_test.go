package importer_test

import (
	"context"
	"strings"
	"testing"

	"cinefile/internal/catalog"
	"cinefile/internal/importer"
	"cinefile/internal/store"
	"cinefile/internal/testsupport"
)

type harness struct {
	store    *store.Store
	srv      *testsupport.TMDBServer
	pipeline *importer.Pipeline
}

func newHarness(t *testing.T, key string, opts ...importer.Option) *harness {
	t.Helper()
	srv := testsupport.NewTMDBServer(t,
		testsupport.FakeMovie{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", VoteCount: 7000, Runtime: 170, Genres: []string{"Crime"}},
		testsupport.FakeMovie{ID: 348, Title: "Alien", ReleaseDate: "1979-05-25", VoteCount: 9000, Runtime: 117, Genres: []string{"Horror"}},
		testsupport.FakeMovie{ID: 679, Title: "Aliens", ReleaseDate: "1986-07-18", VoteCount: 8000},
		testsupport.FakeMovie{ID: 11645, Title: "Ran", ReleaseDate: "1985-06-01", VoteCount: 1200},
	)
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBBaseURL(srv.URL), testsupport.WithTMDBKey(key))
	st := testsupport.MustOpenStore(t, cfg)
	resolver, err := catalog.NewFromConfig(cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	return &harness{store: st, srv: srv, pipeline: importer.New(st, resolver, opts...)}
}

func mustParse(t *testing.T, csv string) []importer.Record {
	t.Helper()
	records, err := importer.ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	return records
}

func memberIDs(t *testing.T, st *store.Store, listID string) []int64 {
	t.Helper()
	items, err := st.ListItems(context.Background(), listID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MovieID)
	}
	return ids
}

var picksMeta = importer.ListMeta{ID: "picks", Name: "Picks", CreatedBy: store.CreatedByImport}

func TestImportResolvesAndFetchesDetails(t *testing.T) {
	h := newHarness(t, "test")
	ctx := context.Background()
	records := mustParse(t, "rank,title,year\n1,Heat,1995\n2,Alien,1979\n")

	result, err := h.pipeline.Import(ctx, picksMeta, records)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !result.Written || result.Imported != 2 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
	if result.DetailsFetched != 2 {
		t.Fatalf("expected 2 detail fetches, got %d", result.DetailsFetched)
	}
	alien, _ := h.store.GetMovie(ctx, 348)
	if alien == nil || alien.Runtime == nil || *alien.Runtime != 117 {
		t.Fatalf("expected cached details, got %#v", alien)
	}
	list, _ := h.store.GetList(ctx, "picks")
	if list == nil || list.ItemCount != 2 {
		t.Fatalf("unexpected list: %#v", list)
	}
	items, _ := h.store.ListItems(ctx, "picks")
	if items[0].ID != "picks:1" || items[1].ID != "picks:2" {
		t.Fatalf("unexpected item ids: %s %s", items[0].ID, items[1].ID)
	}
}

func TestImportTwiceReplacesMemberships(t *testing.T) {
	h := newHarness(t, "test")
	ctx := context.Background()
	csv := "rank,title,year\n1,Heat,1995\n2,Alien,1979\n3,Ran,1985\n"

	for i := 0; i < 2; i++ {
		if _, err := h.pipeline.Import(ctx, picksMeta, mustParse(t, csv)); err != nil {
			t.Fatalf("Import %d failed: %v", i+1, err)
		}
	}
	ids := memberIDs(t, h.store, "picks")
	if len(ids) != 3 || ids[0] != 949 || ids[1] != 348 || ids[2] != 11645 {
		t.Fatalf("unexpected memberships after re-import: %v", ids)
	}

	if _, err := h.pipeline.Import(ctx, picksMeta, mustParse(t, "rank,title\n1,Ran\n")); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	ids = memberIDs(t, h.store, "picks")
	if len(ids) != 1 || ids[0] != 11645 {
		t.Fatalf("expected replace-not-merge, got %v", ids)
	}
	list, _ := h.store.GetList(ctx, "picks")
	if list.ItemCount != 1 {
		t.Fatalf("item count = %d, want 1", list.ItemCount)
	}
}

func TestImportWithoutCredentialWritesNothing(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	result, err := h.pipeline.Import(ctx, picksMeta, mustParse(t, "title,year\nHeat,1995\nAlien,1979\n"))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Written || result.Imported != 0 {
		t.Fatalf("expected nothing written, got %+v", result)
	}
	if result.Reasons[importer.SkipNoCredential] != 2 {
		t.Fatalf("expected no_credential skips, got %v", result.Reasons)
	}
	if !strings.Contains(result.Message, "No TMDB API key") {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if list, _ := h.store.GetList(ctx, "picks"); list != nil {
		t.Fatal("expected list not to be created")
	}
	if h.srv.TotalCalls() != 0 {
		t.Fatalf("expected no catalog calls, got %d", h.srv.TotalCalls())
	}
}

func TestImportUsesTMDBIDsWithoutSearching(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	result, err := h.pipeline.Import(ctx, picksMeta, mustParse(t, "tmdb_id,title\n949,Heat\n348,\n,Ran\n"))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 2 || result.Reasons[importer.SkipNoCredential] != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	items, _ := h.store.ListItems(ctx, "picks")
	if len(items) != 2 || items[0].Rank != nil {
		t.Fatalf("expected 2 unranked items, got %#v", items)
	}
	if items[0].ID != "picks:1" || items[1].ID != "picks:2" {
		t.Fatalf("expected sequence ids, got %s %s", items[0].ID, items[1].ID)
	}
	if h.srv.TotalCalls() != 0 {
		t.Fatalf("expected no catalog calls, got %d", h.srv.TotalCalls())
	}

	keyed := newHarness(t, "test")
	if _, err := keyed.pipeline.Import(ctx, picksMeta, mustParse(t, "tmdb_id\n949\n348\n")); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if keyed.srv.SearchCalls() != 0 || keyed.srv.DetailsCalls() != 2 {
		t.Fatalf("expected detail fetches only, got search=%d details=%d", keyed.srv.SearchCalls(), keyed.srv.DetailsCalls())
	}
}

func TestImportCountsSkipReasons(t *testing.T) {
	h := newHarness(t, "test")
	ctx := context.Background()
	csv := "rank,title,year\n" +
		"1,Heat,1995\n" +
		"2,,\n" +
		"3,Completely Unknown Film,\n" +
		"4,Heat,\n" +
		"5,Alien,1979\n"

	result, err := h.pipeline.Import(ctx, picksMeta, mustParse(t, csv))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 3 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	for _, reason := range []importer.SkipReason{importer.SkipMissingTitle, importer.SkipNoMatch, importer.SkipDuplicate} {
		if result.Reasons[reason] != 1 {
			t.Fatalf("expected one %s skip, got %v", reason, result.Reasons)
		}
	}
	if result.Skips[1].Line != 3 || result.Skips[1].Title != "Completely Unknown Film" {
		t.Fatalf("unexpected skip detail: %+v", result.Skips[1])
	}
}

func TestImportCatalogOutageSkipsRows(t *testing.T) {
	h := newHarness(t, "test")
	h.srv.FailSearch(true)

	result, err := h.pipeline.Import(context.Background(), picksMeta, mustParse(t, "title\nHeat\nAlien\n"))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Reasons[importer.SkipCatalogError] != 2 || result.Written {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Message != "No rows could be resolved to TMDB ids." {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestImportDetailFailuresDoNotRollBack(t *testing.T) {
	h := newHarness(t, "test")
	h.srv.FailDetails(true)

	result, err := h.pipeline.Import(context.Background(), picksMeta, mustParse(t, "tmdb_id\n949\n"))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !result.Written || result.DetailsFailed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if ids := memberIDs(t, h.store, "picks"); len(ids) != 1 {
		t.Fatalf("expected membership to survive detail failure, got %v", ids)
	}
}

func TestImportDisambiguatesRankCollisions(t *testing.T) {
	h := newHarness(t, "", importer.WithoutDetails())

	result, err := h.pipeline.Import(context.Background(), picksMeta, mustParse(t, "rank,tmdb_id\n1,949\n1,348\n"))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	items, _ := h.store.ListItems(context.Background(), "picks")
	if len(items) != 2 || items[0].ID == items[1].ID {
		t.Fatalf("expected distinct item ids, got %#v", items)
	}
}

func TestImportRejectsReservedIDs(t *testing.T) {
	h := newHarness(t, "test")
	for _, id := range []string{"", store.PlaceholderListID, store.TopListID} {
		if _, err := h.pipeline.Import(context.Background(), importer.ListMeta{ID: id}, nil); err == nil {
			t.Fatalf("expected error for list id %q", id)
		}
	}
}

func TestRebuildMembershipsKeepsDefinition(t *testing.T) {
	h := newHarness(t, "test", importer.WithDefaultRanks(), importer.WithoutDetails())
	ctx := context.Background()
	created, err := h.store.CreateList(ctx, store.NewList{Name: "Custom Name", Source: "handmade"})
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}

	result, err := h.pipeline.RebuildMemberships(ctx, created.ID, mustParse(t, "title,year\nHeat,1995\nRan,1985\n"))
	if err != nil {
		t.Fatalf("RebuildMemberships failed: %v", err)
	}
	if !result.Written || result.Imported != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	list, _ := h.store.GetList(ctx, created.ID)
	if list.Name != "Custom Name" || list.Source != "handmade" || list.ItemCount != 2 {
		t.Fatalf("definition changed: %#v", list)
	}
	items, _ := h.store.ListItems(ctx, created.ID)
	if items[1].Rank == nil || *items[1].Rank != 2 {
		t.Fatalf("expected default rank 2, got %#v", items[1].Rank)
	}
	if h.srv.DetailsCalls() != 0 {
		t.Fatalf("expected details to be skipped, got %d calls", h.srv.DetailsCalls())
	}

	if _, err := h.pipeline.RebuildMemberships(ctx, "missing", mustParse(t, "tmdb_id\n949\n")); err == nil {
		t.Fatal("expected error for missing list")
	}
}
