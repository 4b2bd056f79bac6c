package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cinefile/internal/preflight"
	"cinefile/internal/store"
)

type statusReport struct {
	Stats        store.Stats        `json:"stats"`
	SeedComplete bool               `json:"seedComplete"`
	Checks       []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "status",
		Short:       "Show library counts and dependency health",
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				stats, err := a.store.Stats(runCtx)
				if err != nil {
					return err
				}
				flag, _, err := a.store.Setting(runCtx, store.SettingSeedCompleted)
				if err != nil {
					return err
				}
				report := statusReport{
					Stats:        stats,
					SeedComplete: flag == "1",
					Checks:       preflight.RunAll(runCtx, a.cfg),
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				printStatus(cmd, report)
				return nil
			})
		},
	}
}

func printStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	var lines []string
	lines = append(lines, renderSectionHeader("Library", colorize)...)
	lines = append(lines,
		renderStatusLine("Movies", statusInfo, strconv.Itoa(report.Stats.Movies), colorize),
		renderStatusLine("Lists", statusInfo, strconv.Itoa(report.Stats.Lists), colorize),
		renderStatusLine("List items", statusInfo, strconv.Itoa(report.Stats.Items), colorize),
	)
	if report.SeedComplete {
		lines = append(lines, renderStatusLine("Reference lists", statusOK, "Seeded", colorize))
	} else {
		lines = append(lines, renderStatusLine("Reference lists", statusWarn, "Not seeded (run cinefile seed)", colorize))
	}
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	for _, check := range report.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
