package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinefile/internal/notifications"
	"cinefile/internal/seed"
)

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "seed",
		Short:       "Load the bundled reference lists",
		Long:        "Load the bundled reference lists. Without --force nothing happens once seeding has completed or any list exists.",
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				seeder, err := a.seeder()
				if err != nil {
					return err
				}
				var report *seed.Report
				if force {
					report, err = seeder.Reseed(runCtx)
				} else {
					report, err = seeder.SeedIfEmpty(runCtx)
				}
				if err != nil {
					return err
				}
				if !report.Skipped && len(report.Built)+len(report.Rebuilt) > 0 {
					a.notify(runCtx, "seed", func(ctx context.Context, n notifications.Service) error {
						return n.NotifySeedCompleted(ctx, len(report.Built)+len(report.Rebuilt), len(report.Deferred))
					})
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				printSeedReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Bypass the first-run gate and rebuild emptied reference lists")
	return cmd
}

func printSeedReport(cmd *cobra.Command, report *seed.Report) {
	out := cmd.OutOrStdout()
	if report.Skipped {
		fmt.Fprintf(out, "Seed skipped: %s\n", report.Reason)
		return
	}
	lines := []struct {
		label string
		ids   []string
	}{
		{"Removed stray lists", report.Cleaned},
		{"Built", report.Built},
		{"Rebuilt", report.Rebuilt},
		{"Already populated", report.SkippedLists},
		{"Asset not bundled", report.Missing},
		{"Waiting for a TMDB key", report.Deferred},
		{"Failed", report.Failed},
	}
	for _, line := range lines {
		if len(line.ids) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", line.label, strings.Join(line.ids, ", "))
	}
}
