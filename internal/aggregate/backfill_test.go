package aggregate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cinefile/internal/aggregate"
	"cinefile/internal/store"
	"cinefile/internal/testsupport"
)

type fakeFetcher struct {
	credential bool
	entered    chan int64
	block      chan struct{}
	fail       map[int64]bool
	incomplete map[int64]bool

	mu    sync.Mutex
	calls map[int64]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		credential: true,
		calls:      make(map[int64]int),
		fail:       make(map[int64]bool),
		incomplete: make(map[int64]bool),
	}
}

func (f *fakeFetcher) HasCredential() bool { return f.credential }

func (f *fakeFetcher) FetchDetails(ctx context.Context, id int64) (store.Movie, error) {
	f.mu.Lock()
	f.calls[id]++
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- id
	}
	if f.block != nil {
		<-f.block
	}
	if f.fail[id] {
		return store.Movie{}, errors.New("catalog down")
	}
	if f.incomplete[id] {
		return store.Movie{ID: id, Title: fmt.Sprintf("Movie %d", id), Runtime: store.IntPtr(90)}, nil
	}
	return store.Movie{
		ID:      id,
		Title:   fmt.Sprintf("Movie %d", id),
		Runtime: store.IntPtr(100),
		Genres:  []string{"Drama"},
	}, nil
}

func (f *fakeFetcher) callCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestBackfillCapsBatchAndMergesDetails(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.RankedList(t, st, "big", 1, 2, 3, 4, 5, 6, 7)
	fetcher := newFakeFetcher()
	engine := aggregate.New(st, fetcher, aggregate.WithBatchSize(5))

	rows, err := engine.Aggregate(ctx, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	result := engine.Backfill(ctx, rows)
	if result.Claimed != 5 || result.Fetched != 5 || result.Failed != 0 {
		t.Fatalf("unexpected first batch: %+v", result)
	}

	rows, err = engine.Aggregate(ctx, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	pending := 0
	for _, row := range rows {
		if row.NeedsEnrichment() {
			pending++
		}
	}
	if pending != 2 {
		t.Fatalf("expected 2 rows still pending, got %d", pending)
	}
	result = engine.Backfill(ctx, rows)
	if result.Claimed != 2 || result.Fetched != 2 {
		t.Fatalf("unexpected second batch: %+v", result)
	}
	for id := int64(1); id <= 7; id++ {
		if n := fetcher.callCount(id); n != 1 {
			t.Fatalf("movie %d fetched %d times", id, n)
		}
	}
}

func TestBackfillDoesNotRefetchIncompleteRecords(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.RankedList(t, st, "big", 1, 2, 3, 4, 5, 6, 7)
	fetcher := newFakeFetcher()
	for id := int64(1); id <= 5; id++ {
		fetcher.incomplete[id] = true
	}
	engine := aggregate.New(st, fetcher, aggregate.WithBatchSize(5))

	for i := 0; i < 4; i++ {
		rows, err := engine.Aggregate(ctx, nil)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		engine.Backfill(ctx, rows)
	}
	for id := int64(1); id <= 7; id++ {
		if n := fetcher.callCount(id); n != 1 {
			t.Fatalf("movie %d fetched %d times, want 1", id, n)
		}
	}
	movie, err := st.GetMovie(ctx, 7)
	if err != nil || movie == nil || movie.NeedsEnrichment() {
		t.Fatalf("expected movie 7 to be enriched, got %#v (err %v)", movie, err)
	}
}

func TestBackfillSkipsInFlightIDs(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.RankedList(t, st, "one", 42)
	fetcher := newFakeFetcher()
	fetcher.entered = make(chan int64, 1)
	fetcher.block = make(chan struct{})
	engine := aggregate.New(st, fetcher, aggregate.WithBatchSize(1))

	rows, err := engine.Aggregate(ctx, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	done := make(chan aggregate.BackfillResult, 1)
	go func() { done <- engine.Backfill(ctx, rows) }()

	select {
	case <-fetcher.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch never started")
	}
	if !engine.InFlight(42) {
		t.Fatal("expected id to be in flight")
	}
	if second := engine.Backfill(ctx, rows); second.Claimed != 0 {
		t.Fatalf("expected in-flight id to be skipped, got %+v", second)
	}

	close(fetcher.block)
	first := <-done
	if first.Fetched != 1 {
		t.Fatalf("unexpected result: %+v", first)
	}
	if engine.InFlight(42) {
		t.Fatal("expected id to be released")
	}
	if fetcher.callCount(42) != 1 {
		t.Fatalf("expected single fetch, got %d", fetcher.callCount(42))
	}
}

func TestBackfillSwallowsFailures(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.RankedList(t, st, "pair", 1, 2)
	fetcher := newFakeFetcher()
	fetcher.fail[2] = true
	engine := aggregate.New(st, fetcher)

	rows, _ := engine.Aggregate(ctx, nil)
	result := engine.Backfill(ctx, rows)
	if result.Fetched != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if engine.InFlight(2) {
		t.Fatal("failed id must be released")
	}
	movie, _ := st.GetMovie(ctx, 2)
	if movie != nil {
		t.Fatal("failed fetch must not cache a record")
	}
}

func TestBackfillWithoutCredentialIsNoop(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.RankedList(t, st, "pair", 1, 2)
	fetcher := newFakeFetcher()
	fetcher.credential = false
	engine := aggregate.New(st, fetcher)

	rows, _ := engine.Aggregate(ctx, nil)
	if result := engine.Backfill(ctx, rows); result != (aggregate.BackfillResult{}) {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if fetcher.callCount(1) != 0 {
		t.Fatal("expected no fetches without credential")
	}
}
