package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"listingsmith/internal/daemonctl"
	"listingsmith/internal/preflight"
	"listingsmith/internal/tasks"
)

const statusLabelWidth = 22

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks and task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), cfg, daemonctl.NewClient(cfg))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, snapshot)
			}
			renderStatus(cmd.OutOrStdout(), snapshot)
			return nil
		},
	}
}

func renderStatus(out io.Writer, snapshot daemonctl.Snapshot) {
	colorize := shouldColorize(out)
	status := snapshot.Status

	source := "daemon"
	if snapshot.Source != "daemon" {
		source = "local (daemon not running)"
	}
	fmt.Fprintf(out, "Source: %s\n\n", source)

	fmt.Fprintln(out, paint(ansiBlue, "Checks", colorize))
	for _, check := range status.Checks {
		fmt.Fprintln(out, checkLine(check, colorize))
	}
	fmt.Fprintln(out)

	if status.Running != "" {
		fmt.Fprintf(out, "Running task: %s\n\n", status.Running)
	}

	fmt.Fprintln(out, paint(ansiBlue, "Tasks", colorize))
	rows := make([][]string, 0, 4)
	for _, s := range tasks.AllStatuses() {
		rows = append(rows, []string{string(s), strconv.Itoa(status.TaskCounts[string(s)])})
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func checkLine(check preflight.Result, colorize bool) string {
	label, color := "OK", ansiGreen
	if !check.Passed {
		label, color = "FAIL", ansiRed
	}
	line := fmt.Sprintf("  %-*s [%s] %s", statusLabelWidth, check.Name+":", label, check.Detail)
	return paint(color, line, colorize)
}
