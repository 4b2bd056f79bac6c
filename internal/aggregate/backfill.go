package aggregate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"cinefile/internal/logging"
)

// BackfillResult summarises one Backfill call.
type BackfillResult struct {
	Claimed int `json:"claimed"`
	Fetched int `json:"fetched"`
	Failed  int `json:"failed"`
}

// Backfill fetches details for up to the batch size of rows that still need
// enrichment and merges them into the store. Ids already being fetched by
// another call are skipped. Fetch and merge failures are logged and counted,
// never returned.
func (e *Engine) Backfill(ctx context.Context, rows []Row) BackfillResult {
	if e.fetcher == nil || !e.fetcher.HasCredential() {
		return BackfillResult{}
	}
	ids := e.claim(rows)
	if len(ids) == 0 {
		return BackfillResult{}
	}
	var (
		mu     sync.Mutex
		done   []int64
		result = BackfillResult{Claimed: len(ids)}
	)
	defer func() { e.release(ids, done) }()

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.batchSize)
	for _, id := range ids {
		group.Go(func() error {
			err := e.enrich(gctx, id)
			mu.Lock()
			if err != nil {
				result.Failed++
			} else {
				result.Fetched++
				done = append(done, id)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	e.logger.Debug("backfill finished",
		logging.Int("claimed", result.Claimed),
		logging.Int("fetched", result.Fetched),
		logging.Int("failed", result.Failed),
	)
	return result
}

func (e *Engine) enrich(ctx context.Context, id int64) error {
	movie, err := e.fetcher.FetchDetails(ctx, id)
	if err == nil {
		_, err = e.store.MergeMovieDetails(ctx, movie)
	}
	if err != nil {
		logging.WarnWithContext(e.logger, "movie backfill failed", "enrichment_failed",
			logging.Int64(logging.FieldMovieID, id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "details will be retried on the next aggregate"),
			logging.String(logging.FieldImpact, "movie shows partial details"),
		)
	}
	return err
}

// claim atomically reserves up to batchSize ids that need enrichment, are not
// already in flight and have not been fetched before.
func (e *Engine) claim(rows []Row) []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []int64
	for _, row := range rows {
		if len(ids) == e.batchSize {
			break
		}
		if !row.NeedsEnrichment() {
			continue
		}
		id := row.Movie.ID
		if _, busy := e.inFlight[id]; busy {
			continue
		}
		if _, seen := e.fetched[id]; seen {
			continue
		}
		e.inFlight[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (e *Engine) release(ids, fetched []int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		delete(e.inFlight, id)
	}
	for _, id := range fetched {
		e.fetched[id] = struct{}{}
	}
}

// InFlight reports whether id is currently being fetched.
func (e *Engine) InFlight(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inFlight[id]
	return ok
}
