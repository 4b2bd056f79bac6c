package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newMembershipCommands returns the top-level add, remove and replace commands.
func newMembershipCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newAddCommand(ctx),
		newRemoveCommand(ctx),
		newReplaceCommand(ctx),
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var rank int
	var year int

	cmd := &cobra.Command{
		Use:   "add <list-id> <tmdb-id|title>",
		Short: "Add a movie to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				movieID, err := resolveMovieArg(runCtx, a, args[1], year)
				if err != nil {
					return err
				}
				item, err := a.store.AddMembership(runCtx, args[0], movieID, rank)
				if err != nil {
					return err
				}
				cacheMovieBestEffort(runCtx, a, movieID)
				if ctx.jsonOutput() {
					return writeJSON(cmd, item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d to %s at rank %s\n", movieID, item.ListID, formatRank(item.Rank))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&rank, "rank", 0, "Rank within the list (default: end of list)")
	cmd.Flags().IntVar(&year, "year", 0, "Release year hint when adding by title")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <list-id> <tmdb-id>",
		Short: "Remove a movie from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := parseMovieID(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				if err := a.store.RemoveMembership(runCtx, args[0], movieID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d from %s\n", movieID, args[0])
				return nil
			})
		},
	}
}

func newReplaceCommand(ctx *commandContext) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "replace <list-id> <old-tmdb-id> <new-tmdb-id|title>",
		Short: "Swap a list entry for another movie, keeping its rank",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldID, err := parseMovieID(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				newID, err := resolveMovieArg(runCtx, a, args[2], year)
				if err != nil {
					return err
				}
				item, err := a.store.ReplaceMembershipMovie(runCtx, args[0], oldID, newID)
				if err != nil {
					return err
				}
				cacheMovieBestEffort(runCtx, a, newID)
				if ctx.jsonOutput() {
					return writeJSON(cmd, item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced %d with %d in %s at rank %s\n", oldID, newID, item.ListID, formatRank(item.Rank))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Release year hint when replacing by title")
	return cmd
}
