package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cinefile/internal/backup"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the local database as JSON",
	}
	backupCmd.AddCommand(newBackupExportCommand(ctx))
	backupCmd.AddCommand(newBackupImportCommand(ctx))
	return backupCmd
}

func newBackupExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:         "export",
		Short:       "Write every movie, list and list item to a JSON document",
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				var w io.Writer = cmd.OutOrStdout()
				output = strings.TrimSpace(output)
				if output != "" && output != "-" {
					if dir := filepath.Dir(output); dir != "" {
						if err := os.MkdirAll(dir, 0o755); err != nil {
							return fmt.Errorf("create output directory: %w", err)
						}
					}
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create backup file: %w", err)
					}
					defer f.Close()
					w = f
				}
				counts, err := backup.Export(runCtx, a.store, w)
				if err != nil {
					return err
				}
				if w != cmd.OutOrStdout() {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d movies, %d lists, %d list items to %s\n", counts.Movies, counts.Lists, counts.Items, output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newBackupImportCommand(ctx *commandContext) *cobra.Command {
	var clearFirst bool

	cmd := &cobra.Command{
		Use:         "import <file>",
		Short:       "Restore records from a JSON backup",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open backup: %w", err)
				}
				defer f.Close()
				counts, err := backup.Import(runCtx, a.store, f, backup.Options{ClearFirst: clearFirst})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, counts)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d movies, %d lists, %d list items\n", counts.Movies, counts.Lists, counts.Items)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Delete all local records before restoring")
	return cmd
}
