package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cinefile/internal/backup"
	"cinefile/internal/cloudsync"
	"cinefile/internal/notifications"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:         "sync",
		Short:       "Pull then push records to the remote database",
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, ctx, func(runCtx context.Context, a *app, s *cloudsync.Syncer) error {
				result := s.SyncNow(runCtx)
				switch result.Status {
				case cloudsync.StatusOK:
					a.notify(runCtx, "sync", func(ctx context.Context, n notifications.Service) error {
						return n.NotifySyncCompleted(ctx, result.Pulled.Total(), result.Pushed.Total())
					})
				case cloudsync.StatusError:
					a.notify(runCtx, "sync", func(ctx context.Context, n notifications.Service) error {
						return n.NotifyError(ctx, errors.New(result.Error), "sync")
					})
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				printSyncResult(cmd, result)
				if result.Status == cloudsync.StatusError {
					return fmt.Errorf("sync failed: %s", result.Error)
				}
				return nil
			})
		},
	}

	syncCmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Apply remote records to the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, ctx, func(runCtx context.Context, _ *app, s *cloudsync.Syncer) error {
				if s == nil {
					return printSyncDisabled(cmd, ctx)
				}
				if err := s.EnsureSchema(runCtx); err != nil {
					return err
				}
				counts, err := s.Pull(runCtx)
				if err != nil {
					return err
				}
				return printSyncCounts(cmd, ctx, "Pulled", counts)
			})
		},
	})
	syncCmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Upload local records to the remote database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, ctx, func(runCtx context.Context, _ *app, s *cloudsync.Syncer) error {
				if s == nil {
					return printSyncDisabled(cmd, ctx)
				}
				if err := s.EnsureSchema(runCtx); err != nil {
					return err
				}
				counts, err := s.Push(runCtx)
				if err != nil {
					return err
				}
				return printSyncCounts(cmd, ctx, "Pushed", counts)
			})
		},
	})

	return syncCmd
}

// withSyncer runs fn with a Syncer, or nil when sync is disabled.
func withSyncer(cmd *cobra.Command, ctx *commandContext, fn func(context.Context, *app, *cloudsync.Syncer) error) error {
	return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
		syncer, db, err := cloudsync.FromConfig(runCtx, a.cfg, a.store, a.logger)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}
		return fn(runCtx, a, syncer)
	})
}

func printSyncDisabled(cmd *cobra.Command, ctx *commandContext) error {
	result := cloudsync.Result{Status: cloudsync.StatusDisabled}
	if ctx.jsonOutput() {
		return writeJSON(cmd, result)
	}
	printSyncResult(cmd, result)
	return nil
}

func printSyncCounts(cmd *cobra.Command, ctx *commandContext, verb string, counts backup.Counts) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, counts)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d movies, %d lists, %d list items\n", verb, counts.Movies, counts.Lists, counts.Items)
	return nil
}

func printSyncResult(cmd *cobra.Command, result cloudsync.Result) {
	out := cmd.OutOrStdout()
	switch result.Status {
	case cloudsync.StatusDisabled:
		fmt.Fprintln(out, "Sync is disabled (set [sync] enabled = true and database_url)")
	case cloudsync.StatusError:
		fmt.Fprintf(out, "Sync failed: %s\n", result.Error)
	default:
		fmt.Fprintf(out, "Pulled %d movies, %d lists, %d list items\n", result.Pulled.Movies, result.Pulled.Lists, result.Pulled.Items)
		fmt.Fprintf(out, "Pushed %d movies, %d lists, %d list items\n", result.Pushed.Movies, result.Pushed.Lists, result.Pushed.Items)
	}
}
