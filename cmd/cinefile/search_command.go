package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinefile/internal/catalog"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog for movies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				if !a.resolver.HasCredential() {
					fmt.Fprintln(cmd.ErrOrStderr(), describeError(catalog.ErrCredentialMissing))
				}
				candidates, err := a.resolver.SearchCandidates(runCtx, query, year)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, candidates)
				}
				if len(candidates) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches")
					return nil
				}
				rows := make([][]string, 0, len(candidates))
				for _, c := range candidates {
					rows = append(rows, []string{
						strconv.FormatInt(c.ID, 10),
						c.Title,
						formatYear(c.Year),
						formatRating(c.Rating),
						a.resolver.PosterURL(c.PosterPath),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"TMDB", "Title", "Year", "Rating", "Poster"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Release year hint")
	return cmd
}
