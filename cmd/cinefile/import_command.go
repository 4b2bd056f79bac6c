package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"cinefile/internal/importer"
	"cinefile/internal/notifications"
	"cinefile/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		listID    string
		name      string
		source    string
		private   bool
		noDetails bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV or JSON list, replacing the list's memberships",
		Long: "Import a CSV or JSON file of movies into a list. Columns are matched by name " +
			"(title/movie/film, year, rank/position, tmdb_id). Re-importing the same file " +
			"replaces the list's memberships rather than merging them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				var opts []importer.Option
				opts = append(opts, importer.WithLogger(a.logger))
				if noDetails {
					opts = append(opts, importer.WithoutDetails())
				}
				pipeline := importer.New(a.store, a.resolver, opts...)
				meta := importer.ListMeta{ID: listID, Name: name, Source: source}
				if private {
					meta.Visibility = store.VisibilityPrivate
				}
				result, err := pipeline.ImportFile(runCtx, args[0], meta)
				if err != nil {
					return err
				}
				if result.Written {
					a.notify(runCtx, "import", func(ctx context.Context, n notifications.Service) error {
						return n.NotifyImportCompleted(ctx, result.ListID, result.Imported, result.Skipped)
					})
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				printImportResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&listID, "id", "", "List id (defaults to the file name)")
	cmd.Flags().StringVar(&name, "name", "", "List name (defaults to the file name)")
	cmd.Flags().StringVar(&source, "source", "", "List source label")
	cmd.Flags().BoolVar(&private, "private", false, "Mark the list private")
	cmd.Flags().BoolVar(&noDetails, "no-details", false, "Skip fetching movie details after the import")
	return cmd
}

func printImportResult(cmd *cobra.Command, result *importer.Result) {
	out := cmd.OutOrStdout()
	if !result.Written {
		fmt.Fprintf(out, "Nothing imported into %s: %s\n", result.ListID, result.Message)
	} else {
		fmt.Fprintf(out, "Imported %d movies into %s (%d skipped)\n", result.Imported, result.ListID, result.Skipped)
		if result.DetailsFetched > 0 || result.DetailsFailed > 0 {
			fmt.Fprintf(out, "Fetched details for %d movies (%d failed)\n", result.DetailsFetched, result.DetailsFailed)
		}
	}
	if result.RunID != "" {
		fmt.Fprintf(out, "Run id: %s (see `cinefile logs --run %s`)\n", result.RunID, result.RunID)
	}
	if len(result.Reasons) == 0 {
		return
	}
	reasons := make([]string, 0, len(result.Reasons))
	for reason := range result.Reasons {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	rows := make([][]string, 0, len(reasons))
	for _, reason := range reasons {
		rows = append(rows, []string{reason, strconv.Itoa(result.Reasons[importer.SkipReason(reason)])})
	}
	fmt.Fprint(out, renderTable([]string{"Skip Reason", "Rows"}, rows, []columnAlignment{alignLeft, alignRight}))
}
