package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"listingsmith/internal/config"
	"listingsmith/internal/daemonctl"
	"listingsmith/internal/logging"
	"listingsmith/internal/logs"
)

const followWait = 2 * time.Second

// tailFunc reads one page of log lines starting at offset.
type tailFunc func(ctx context.Context, lines int, offset int64, wait time.Duration) ([]string, int64, error)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display listingsmith logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				lines = 0
			}
			return printLogs(cmd, pickTail(cmd.Context(), cfg), lines, follow)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show")
	return cmd
}

// pickTail reads through the daemon when it answers and from the local log
// file otherwise.
func pickTail(ctx context.Context, cfg *config.Config) tailFunc {
	client := daemonctl.NewClient(cfg)
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Health(probeCtx); err == nil {
		return func(ctx context.Context, lines int, offset int64, wait time.Duration) ([]string, int64, error) {
			resp, err := client.Logs(ctx, lines, offset, wait)
			return resp.Lines, resp.Offset, err
		}
	}

	path := logging.LogFilePath(cfg)
	return func(ctx context.Context, lines int, offset int64, wait time.Duration) ([]string, int64, error) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Limit: lines, Wait: wait})
		return res.Lines, res.Offset, err
	}
}

func printLogs(cmd *cobra.Command, tail tailFunc, lines int, follow bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	got, offset, err := tail(ctx, lines, -1, 0)
	if err != nil {
		return fmt.Errorf("tail logs: %w", err)
	}
	for _, line := range got {
		fmt.Fprintln(out, line)
	}
	if !follow {
		if len(got) == 0 {
			fmt.Fprintln(out, "No log entries available")
		}
		return nil
	}

	for {
		got, offset, err = tail(ctx, 0, offset, followWait)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("follow logs: %w", err)
		}
		for _, line := range got {
			fmt.Fprintln(out, line)
		}
	}
}
