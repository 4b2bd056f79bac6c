package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newWipeCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:         "wipe",
		Short:       "Delete every movie, list, rating and setting",
		Annotations: map[string]string{annotationSkipSeed: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to wipe without --yes")
			}
			return ctx.withApp(cmd, func(runCtx context.Context, a *app) error {
				if err := a.store.WipeAll(runCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All local data deleted; reference lists are rebuilt on the next run")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deletion")
	return cmd
}
