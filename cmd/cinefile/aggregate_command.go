package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cinefile/internal/aggregate"
)

func newAggregateCommand(ctx *commandContext) *cobra.Command {
	var (
		listIDs    []string
		noBackfill bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Rank movies across lists by mean normalized position",
		Long: "Merge the selected lists (all lists by default) into one ranking. A movie's score " +
			"is the mean of rank/list-size across the lists it appears in; lower is better. " +
			"One batch of movies with missing details is fetched from TMDB on each run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				rows, err := a.engine.Aggregate(runCtx, listIDs)
				if err != nil {
					return err
				}
				var fill *aggregate.BackfillResult
				if !noBackfill {
					result := a.engine.Backfill(runCtx, rows)
					fill = &result
					if result.Fetched > 0 {
						if rows, err = a.engine.Aggregate(runCtx, listIDs); err != nil {
							return err
						}
					}
				}
				if limit > 0 && len(rows) > limit {
					rows = rows[:limit]
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"rows": rows, "backfill": fill})
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No movies in the selected lists")
					return nil
				}
				colorize := shouldColorize(out)
				tableRows := make([][]string, 0, len(rows))
				for i, r := range rows {
					tableRows = append(tableRows, []string{
						strconv.Itoa(i + 1),
						movieTitle(r.Movie, r.Placeholder, colorize),
						formatYear(r.Movie.Year),
						formatScore(r.Score),
						formatListRanks(r.Lists),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"#", "Title", "Year", "Score", "Lists"},
					tableRows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
				))
				if fill != nil && fill.Claimed > 0 {
					fmt.Fprintf(out, "Backfill: %d claimed, %d fetched, %d failed\n", fill.Claimed, fill.Fetched, fill.Failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listIDs, "list", "l", nil, "Restrict to these list ids (repeatable)")
	cmd.Flags().BoolVar(&noBackfill, "no-backfill", false, "Skip fetching details for incomplete movies")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many rows")
	return cmd
}
