package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"listingsmith/internal/export"
	"listingsmith/internal/generation"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag, taskID, outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export selected results as JSON, CSV or Parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Paths.ExportDir
			}
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				results, err := manager.Tasks().ListSelected(runCtx, taskID)
				if err != nil {
					return err
				}
				path, err := export.NewExporter(dir, cfg.LocaleTag()).Export(results, format)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"path": path, "count": len(results), "format": format})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(results), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(export.FormatJSON), "Output format: json, csv or parquet")
	cmd.Flags().StringVar(&taskID, "task", "", "Only export results from this task")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to write into (default: export_dir)")
	return cmd
}
