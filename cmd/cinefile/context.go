package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"cinefile/internal/aggregate"
	"cinefile/internal/catalog"
	"cinefile/internal/config"
	"cinefile/internal/logging"
	"cinefile/internal/notifications"
	"cinefile/internal/seed"
	"cinefile/internal/store"
	"cinefile/internal/toplist"
)

const (
	annotationSkipConfig = "skipConfigLoad"
	annotationSkipSeed   = "skipAutoSeed"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// app bundles the collaborators a command works with.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	resolver *catalog.Resolver
	engine   *aggregate.Engine
	top      *toplist.Scheduler
	notifier notifications.Service
}

// withApp opens the store and its collaborators, seeds on first run, runs fn,
// and flushes any pending top list recompute before closing.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	resolver, err := catalog.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		resolver: resolver,
		engine: aggregate.New(st, resolver,
			aggregate.WithBatchSize(cfg.Enrichment.BatchSize),
			aggregate.WithLogger(logger),
		),
		notifier: notifications.NewService(cfg),
	}
	if cfg.TopList.Enabled {
		a.top = toplist.NewScheduler(st, cfg.TopListDebounce(), logger)
		defer a.top.Close()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Seed.Enabled && !hasAnnotation(cmd, annotationSkipSeed) {
		a.autoSeed(ctx)
	}

	runErr := fn(ctx, a)
	if a.top != nil {
		if err := a.top.Flush(context.WithoutCancel(ctx)); err != nil {
			logging.WarnWithContext(logger, "top list flush failed", "toplist_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "top list updates on the next rating change"),
			)
		}
	}
	return runErr
}

func (a *app) seeder() (*seed.Seeder, error) {
	return seed.New(a.cfg, a.store, a.resolver, seed.WithLogger(a.logger))
}

func (a *app) autoSeed(ctx context.Context) {
	seeder, err := a.seeder()
	if err == nil {
		var report *seed.Report
		report, err = seeder.SeedIfEmpty(ctx)
		if err == nil && !report.Skipped && len(report.Built) > 0 {
			a.logger.Info("reference lists seeded", logging.Int("lists", len(report.Built)))
			a.notify(ctx, "seed", func(ctx context.Context, n notifications.Service) error {
				return n.NotifySeedCompleted(ctx, len(report.Built), len(report.Deferred))
			})
		}
	}
	if err != nil {
		logging.WarnWithContext(a.logger, "first-run seed failed", "seed_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run cinefile seed to retry"),
		)
	}
}

// notify sends one push and logs rather than returns delivery failures.
func (a *app) notify(ctx context.Context, event string, send func(context.Context, notifications.Service) error) {
	if err := send(ctx, a.notifier); err != nil {
		logging.WarnWithContext(a.logger, "notification failed", "notification_failed",
			logging.String("event", event),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations[key] == "true" {
			return true
		}
	}
	return false
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	return hasAnnotation(cmd, annotationSkipConfig)
}
