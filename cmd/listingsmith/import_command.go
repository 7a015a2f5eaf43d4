package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"listingsmith/internal/api"
	"listingsmith/internal/generation"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var imageDir string
	var start bool

	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Create a pending task from an Excel workbook",
		Long: `Reads name, brand, type and image columns from the first sheet.
Image cells are file paths, resolved against --image-dir (default: the
workbook's directory). The task stays pending until started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open workbook: %w", err)
			}
			defer file.Close()
			if imageDir == "" {
				imageDir = filepath.Dir(path)
			}

			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				task, err := manager.ImportSpreadsheet(runCtx, file, filepath.Base(path), imageDir)
				if err != nil {
					return err
				}
				if start {
					task, err = manager.Start(runCtx, task.ID)
					if err != nil {
						return err
					}
					return reportRun(cmd, ctx, manager, task, "")
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromTask(task))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d products into task %s\n", task.TotalItems, task.ID)
				fmt.Fprintf(out, "Start it with: listingsmith task start %s\n", task.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&imageDir, "image-dir", "", "Directory relative image paths resolve against")
	cmd.Flags().BoolVar(&start, "start", false, "Start the imported task immediately")
	return cmd
}
