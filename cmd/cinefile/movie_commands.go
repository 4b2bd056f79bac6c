package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinefile/internal/store"
)

func newMovieCommand(ctx *commandContext) *cobra.Command {
	movieCmd := &cobra.Command{
		Use:   "movie",
		Short: "Inspect, rate and mark movies",
	}

	movieCmd.AddCommand(newMovieShowCommand(ctx))
	movieCmd.AddCommand(newMovieRateCommand(ctx))
	movieCmd.AddCommand(newMovieSeenCommand(ctx))

	return movieCmd
}

func parseMovieID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", arg)
	}
	return id, nil
}

func newMovieShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <tmdb-id>",
		Short: "Show a movie and the lists it appears in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				movie, err := ensureMovie(runCtx, a, id)
				if err != nil {
					return err
				}
				items, err := a.store.ItemsByMovie(runCtx, id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"movie": movie, "lists": items})
				}
				printMovie(cmd, a, movie, items)
				return nil
			})
		},
	}
}

func printMovie(cmd *cobra.Command, a *app, m *store.Movie, items []store.ListItem) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)  TMDB %d\n", m.DisplayTitle(), formatYear(m.Year), m.ID)
	if len(m.Directors) > 0 {
		fmt.Fprintf(out, "Directed by: %s\n", strings.Join(m.Directors, ", "))
	}
	if len(m.Cast) > 0 {
		fmt.Fprintf(out, "Cast: %s\n", strings.Join(m.Cast, ", "))
	}
	if m.Runtime != nil {
		fmt.Fprintf(out, "Runtime: %d min\n", *m.Runtime)
	}
	if len(m.Genres) > 0 {
		fmt.Fprintf(out, "Genres: %s\n", strings.Join(m.Genres, ", "))
	}
	fmt.Fprintf(out, "TMDB rating: %s  My rating: %s  Seen: %s\n", formatRating(m.TMDBRating), formatRating(m.MyRating), yesNo(m.Seen))
	if poster := a.resolver.PosterURL(m.PosterPath); poster != "" {
		fmt.Fprintf(out, "Poster: %s\n", poster)
	}
	if m.Overview != "" {
		fmt.Fprintf(out, "\n%s\n", m.Overview)
	}
	if len(items) == 0 {
		return
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.ListID, formatRank(item.Rank)})
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, renderTable([]string{"List", "Rank"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func newMovieRateCommand(ctx *commandContext) *cobra.Command {
	var watched string

	cmd := &cobra.Command{
		Use:   "rate <tmdb-id> <rating>",
		Short: "Rate a movie from 0 to 10 in half steps and mark it seen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}
			if !store.ValidRating(rating) {
				return fmt.Errorf("%w: got %v", store.ErrInvalidRating, rating)
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				if _, err := ensureMovie(runCtx, a, id); err != nil {
					return err
				}
				movie, err := a.store.RateMovie(runCtx, id, rating, watched)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, movie)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rated %s %s (watched %s)\n", movie.DisplayTitle(), formatRating(movie.MyRating), movie.WatchedAt)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&watched, "watched", "", "Watch date (YYYY-MM-DD, default today)")
	return cmd
}

func newMovieSeenCommand(ctx *commandContext) *cobra.Command {
	var unseen bool

	cmd := &cobra.Command{
		Use:   "seen <tmdb-id>",
		Short: "Mark a movie as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				if _, err := ensureMovie(runCtx, a, id); err != nil {
					return err
				}
				movie, err := a.store.SetSeen(runCtx, id, !unseen)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s seen: %s\n", movie.DisplayTitle(), yesNo(movie.Seen))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unseen, "unseen", false, "Clear the watched flag instead")
	return cmd
}
