package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"listingsmith/internal/export"
	"listingsmith/internal/generation"
	"listingsmith/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recent generation snapshots",
	}

	historyCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				entries, err := manager.History().ListAll(runCtx)
				if err != nil {
					return err
				}
				if entries == nil {
					entries = []*history.Entry{}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"items": entries})
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No history")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.ID,
						e.Timestamp.Local().Format("2006-01-02 15:04:05"),
						e.TaskID,
						strconv.Itoa(len(e.GeneratedResults)),
						strconv.Itoa(len(e.CopywritingResults)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "When", "Task", "Results", "Copy"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	})

	historyCmd.AddCommand(newRemoveCommand(ctx, "history entry", func(runCtx context.Context, m *generation.Manager, id string) error {
		return m.History().RemoveByID(runCtx, id)
	}))

	var outputDir string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the history log to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := outputDir
			if dir == "" {
				dir = cfg.Paths.ExportDir
			}
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				entries, err := manager.History().ListAll(runCtx)
				if err != nil {
					return err
				}
				path, err := export.NewExporter(dir, cfg.LocaleTag()).ExportHistory(entries)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d history entries to %s\n", len(entries), path)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to write into (default: export_dir)")
	historyCmd.AddCommand(exportCmd)

	return historyCmd
}
