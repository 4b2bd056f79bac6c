package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinefile/internal/aggregate"
	"cinefile/internal/store"
)

func newListsCommand(ctx *commandContext) *cobra.Command {
	listsCmd := &cobra.Command{
		Use:   "lists",
		Short: "Show and manage ranked lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				lists, err := a.store.Lists(runCtx)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, lists)
				}
				if len(lists) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No lists yet; run `cinefile import <file>` or `cinefile lists create <name>`")
					return nil
				}
				rows := make([][]string, 0, len(lists))
				for _, l := range lists {
					rows = append(rows, []string{l.ID, l.Name, l.Source, strconv.Itoa(l.ItemCount), string(l.Visibility), l.CreatedBy})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Source", "Items", "Visibility", "Created By"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	listsCmd.AddCommand(newListsCreateCommand(ctx))
	listsCmd.AddCommand(newListsRenameCommand(ctx))
	listsCmd.AddCommand(newListsDeleteCommand(ctx))
	listsCmd.AddCommand(newListsShowCommand(ctx))
	listsCmd.AddCommand(newListsClearCommand(ctx))

	return listsCmd
}

func newListsCreateCommand(ctx *commandContext) *cobra.Command {
	var source string
	var public bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				visibility := store.VisibilityPrivate
				if public {
					visibility = store.VisibilityPublic
				}
				list, err := a.store.CreateList(runCtx, store.NewList{
					Name:       args[0],
					Source:     source,
					CreatedBy:  store.CreatedByUser,
					Visibility: visibility,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, list)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created list %s (%s)\n", list.ID, list.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Where the list comes from")
	cmd.Flags().BoolVar(&public, "public", false, "Mark the list public")
	return cmd
}

func newListsRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				list, err := a.store.RenameList(runCtx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", list.ID, list.Name)
				return nil
			})
		},
	}
}

func newListsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list and its memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				if err := a.store.DeleteList(runCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted list %s\n", args[0])
				return nil
			})
		},
	}
}

func newListsClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:         "clear",
		Short:       "Delete every list, keeping movies and ratings",
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear lists without --yes")
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				if err := a.store.ClearLists(runCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All lists removed")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm removal")
	return cmd
}

func newListsShowCommand(ctx *commandContext) *cobra.Command {
	var sortFlag string
	var desc bool
	var backfill bool

	cmd := &cobra.Command{
		Use:   "show <list-id>",
		Short: "Show one list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := aggregate.ParseSortKey(sortFlag)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				list, entries, err := a.engine.ListView(runCtx, args[0], key, desc)
				if err != nil {
					return err
				}
				if backfill {
					rows := make([]aggregate.Row, 0, len(entries))
					for _, e := range entries {
						rows = append(rows, e.Row(list.ID))
					}
					if result := a.engine.Backfill(runCtx, rows); result.Fetched > 0 {
						if list, entries, err = a.engine.ListView(runCtx, args[0], key, desc); err != nil {
							return err
						}
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"list": list, "entries": entries})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%d items)\n", list.Name, list.ItemCount)
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						formatRank(e.Rank),
						movieTitle(e.Movie, e.Placeholder, colorize),
						formatYear(e.Movie.Year),
						strings.Join(e.Movie.Directors, ", "),
						formatRating(e.Movie.MyRating),
						yesNo(e.Movie.Seen),
						strconv.FormatInt(e.Movie.ID, 10),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Rank", "Title", "Year", "Director", "Mine", "Seen", "TMDB"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sortFlag, "sort", "rank", "Sort by rank, title, year or director")
	cmd.Flags().BoolVar(&desc, "desc", false, "Reverse the sort order")
	cmd.Flags().BoolVar(&backfill, "backfill", false, "Fetch missing movie details before showing")
	return cmd
}
