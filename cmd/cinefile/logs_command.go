package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinefile/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		runID  string
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log lines",
		Long:  "Show the last lines of cinefile.log. --run narrows output to one import or seed run id.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			opts := logs.TailOptions{Offset: -1, Limit: lines}
			if id := strings.TrimSpace(runID); id != "" {
				opts.Contains = []string{id}
			}
			out := cmd.OutOrStdout()
			for {
				result, err := logs.Tail(runCtx, cfg.LogPath(), opts)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				if !follow {
					return nil
				}
				opts.Offset = result.Offset
				opts.Follow = true
				opts.Wait = 5 * time.Second
				if runCtx.Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines for this run id")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
