package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"cinefile/internal/config"
	"cinefile/internal/importer"
	"cinefile/internal/logging"
	"cinefile/internal/store"
)

const lockRetryDelay = 50 * time.Millisecond

// Report summarises one seeding attempt.
type Report struct {
	RunID   string `json:"runId"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`

	Cleaned      []string `json:"cleaned,omitempty"`
	Built        []string `json:"built,omitempty"`
	Rebuilt      []string `json:"rebuilt,omitempty"`
	SkippedLists []string `json:"skippedLists,omitempty"`
	Missing      []string `json:"missing,omitempty"`
	// Deferred lists resolved nothing because no catalog credential is
	// configured. The completion flag is not persisted while any remain.
	Deferred []string `json:"deferred,omitempty"`
	Failed   []string `json:"failed,omitempty"`
}

// Seeder loads the bundled reference lists on first run.
type Seeder struct {
	store    *store.Store
	pipeline *importer.Pipeline
	assets   Assets
	sources  []Source
	lockPath string
	logger   *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithAssets replaces the bundled assets.
func WithAssets(assets Assets) Option {
	return func(s *Seeder) { s.assets = assets }
}

// WithSources replaces the default reference list set.
func WithSources(sources []Source) Option {
	return func(s *Seeder) { s.sources = sources }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Seeder) { s.logger = logging.NewComponentLogger(logger, "seed") }
}

// New constructs a Seeder. Rows are resolved through an import pipeline that
// assigns positional ranks to unranked rows.
func New(cfg *config.Config, st *store.Store, resolver importer.Resolver, opts ...Option) (*Seeder, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("seeder requires config and store")
	}
	s := &Seeder{
		store:    st,
		assets:   Bundled(),
		sources:  DefaultSources(),
		lockPath: cfg.SeedLockPath(),
		logger:   logging.NewComponentLogger(nil, "seed"),
	}
	for _, opt := range opts {
		opt(s)
	}
	pipelineOpts := []importer.Option{importer.WithDefaultRanks(), importer.WithLogger(s.logger)}
	if !cfg.Seed.FetchDetails {
		pipelineOpts = append(pipelineOpts, importer.WithoutDetails())
	}
	s.pipeline = importer.New(st, resolver, pipelineOpts...)
	return s, nil
}

// SeedIfEmpty seeds the reference lists unless seeding already completed or
// any list exists.
func (s *Seeder) SeedIfEmpty(ctx context.Context) (*Report, error) {
	return s.run(ctx, false)
}

// Reseed bypasses the first-run gate. Lists that already have memberships
// are left alone; seeded lists that lost their memberships are rebuilt.
func (s *Seeder) Reseed(ctx context.Context) (*Report, error) {
	return s.run(ctx, true)
}

func (s *Seeder) run(ctx context.Context, force bool) (*Report, error) {
	lock := flock.New(s.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire seed lock: %w", err)
	}
	if !locked {
		return nil, errors.New("seed lock not acquired")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release seed lock", logging.Error(err))
		}
	}()

	report := &Report{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, s.logger)

	report.Cleaned = s.cleanup(ctx, logger)

	if !force {
		reason, skip, err := s.gate(ctx)
		if err != nil {
			return nil, err
		}
		if skip {
			report.Skipped = true
			report.Reason = reason
			logger.Info("seed skipped", logging.String("reason", reason))
			return report, nil
		}
	}

	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.ensureList(ctx, logger, src, report)
	}

	if len(report.Deferred) > 0 {
		logging.WarnWithContext(logger, "seed deferred", "seed_deferred",
			logging.Int("lists", len(report.Deferred)),
			logging.String(logging.FieldErrorHint, "set tmdb.api_key and run cinefile seed"),
			logging.String(logging.FieldImpact, "reference lists are not available yet"),
		)
		return report, nil
	}
	if err := s.store.PutSetting(ctx, store.SettingSeedCompleted, "1"); err != nil {
		return report, fmt.Errorf("persist seed flag: %w", err)
	}
	logger.Info("seed completed",
		logging.Int("built", len(report.Built)),
		logging.Int("rebuilt", len(report.Rebuilt)),
		logging.Int("missing", len(report.Missing)),
	)
	return report, nil
}

func (s *Seeder) gate(ctx context.Context) (string, bool, error) {
	done, ok, err := s.store.Setting(ctx, store.SettingSeedCompleted)
	if err != nil {
		return "", false, fmt.Errorf("read seed flag: %w", err)
	}
	if ok && done == "1" {
		return "already seeded", true, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return "", false, err
	}
	if stats.Lists > 0 {
		return "lists already exist", true, nil
	}
	return "", false, nil
}

// cleanup removes stray lists using the reserved placeholder id or name.
// Failures are logged and do not stop seeding.
func (s *Seeder) cleanup(ctx context.Context, logger *slog.Logger) []string {
	lists, err := s.store.Lists(ctx)
	if err != nil {
		logging.WarnWithContext(logger, "seed cleanup failed", "seed_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stray placeholder lists may remain"),
		)
		return nil
	}
	var removed []string
	for _, l := range lists {
		if l.ID != store.PlaceholderListID && strings.ToLower(strings.TrimSpace(l.Name)) != store.PlaceholderListID {
			continue
		}
		if err := s.store.DeleteList(ctx, l.ID); err != nil {
			logging.WarnWithContext(logger, "seed cleanup failed", "seed_cleanup_failed",
				logging.String(logging.FieldListID, l.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stray placeholder list remains"),
			)
			continue
		}
		removed = append(removed, l.ID)
	}
	if len(removed) > 0 {
		logger.Info("removed stray lists", logging.String("lists", strings.Join(removed, ", ")))
	}
	return removed
}

// ensureList builds, rebuilds or skips one reference list. Failures are
// recorded on the report so the remaining sources still run.
func (s *Seeder) ensureList(ctx context.Context, logger *slog.Logger, src Source, report *Report) {
	logger = logger.With(logging.String(logging.FieldListID, src.ListID))

	existing, err := s.store.GetList(ctx, src.ListID)
	if err != nil {
		s.fail(logger, src, report, err)
		return
	}
	rebuild := false
	if existing != nil {
		items, err := s.store.ListItems(ctx, src.ListID)
		if err != nil {
			s.fail(logger, src, report, err)
			return
		}
		if len(items) > 0 {
			report.SkippedLists = append(report.SkippedLists, src.ListID)
			return
		}
		rebuild = true
	}

	present, err := s.assets.Exists(src.Asset)
	if err != nil {
		s.fail(logger, src, report, err)
		return
	}
	if !present {
		report.Missing = append(report.Missing, src.ListID)
		logger.Info("seed asset not present, skipping", logging.String("asset", src.Asset))
		return
	}
	records, err := loadRecords(s.assets, src.Asset)
	if err != nil {
		s.fail(logger, src, report, err)
		return
	}

	var result *importer.Result
	if rebuild {
		result, err = s.pipeline.RebuildMemberships(ctx, src.ListID, records)
	} else {
		result, err = s.pipeline.Import(ctx, src.Meta(), records)
	}
	if err != nil {
		s.fail(logger, src, report, err)
		return
	}
	switch {
	case !result.Written && result.Reasons[importer.SkipNoCredential] > 0:
		report.Deferred = append(report.Deferred, src.ListID)
	case !result.Written:
		s.fail(logger, src, report, errors.New(result.Message))
	case rebuild:
		report.Rebuilt = append(report.Rebuilt, src.ListID)
	default:
		report.Built = append(report.Built, src.ListID)
	}
	logger.Debug("seed list processed",
		logging.Int("imported", result.Imported),
		logging.Int("skipped", result.Skipped),
		logging.Bool("rebuild", rebuild),
	)
}

func (s *Seeder) fail(logger *slog.Logger, src Source, report *Report, err error) {
	report.Failed = append(report.Failed, src.ListID)
	logging.WarnWithContext(logger, "seed list failed", "seed_list_failed",
		logging.String("asset", src.Asset),
		logging.Error(err),
		logging.String(logging.FieldImpact, "list not seeded; remaining lists continue"),
	)
}
