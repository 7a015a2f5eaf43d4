package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"listingsmith/internal/api"
	"listingsmith/internal/generation"
	"listingsmith/internal/product"
	"listingsmith/internal/tasks"
)

type generateFlags struct {
	input      product.Input
	inputFile  string
	batchFile  string
	mode       string
	templateID string
	imagesDir  string
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate titles, selling points and images for one product or a batch",
		Example: `  listingsmith generate --name "Trail Runner" --brand Acme --image shoe.png
  listingsmith generate --input product.json --mode template --template <id>
  listingsmith generate --batch rows.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := flags.request(cmd, cfg.Upload.MaxImageBytes)
			if err != nil {
				return err
			}
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				task, err := manager.Generate(runCtx, req)
				if err != nil {
					return err
				}
				return reportRun(cmd, ctx, manager, task, flags.imagesDir)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.input.Name, "name", "", "Product name")
	f.StringVar(&flags.input.Brand, "brand", "", "Brand")
	f.StringVar(&flags.input.Type, "type", "", "Product type or category")
	f.StringVar(&flags.input.Material, "material", "", "Material")
	f.StringVar(&flags.input.Color, "color", "", "Color")
	f.StringVar(&flags.input.Size, "size", "", "Size")
	f.StringVar(&flags.input.TargetAudience, "audience", "", "Target audience")
	f.StringVar(&flags.input.SellingPoints, "selling-points", "", "Operator-supplied selling points")
	f.StringVar(&flags.input.Image, "image", "", "Main product image (JPG or PNG)")
	f.StringSliceVar(&flags.input.ReferenceImages, "reference-image", nil, "Reference image path (repeatable)")
	f.StringSliceVar(&flags.input.ReferenceLinks, "reference-link", nil, "Reference link (repeatable)")
	f.StringVar(&flags.inputFile, "input", "", "Read the product from a JSON file")
	f.StringVar(&flags.batchFile, "batch", "", "Read batch rows from a YAML or JSON file")
	f.StringVar(&flags.mode, "mode", string(tasks.ModeDefault), "Template mode: default or template")
	f.StringVar(&flags.templateID, "template", "", "Template id for template mode")
	f.StringVar(&flags.imagesDir, "save-images", "", "Write composited images to this directory")
	cmd.MarkFlagsMutuallyExclusive("input", "batch")
	cmd.MarkFlagsMutuallyExclusive("name", "batch")

	return cmd
}

func (f generateFlags) request(cmd *cobra.Command, maxBytes int64) (generation.Request, error) {
	req := generation.Request{
		Mode:       tasks.Mode(strings.TrimSpace(f.mode)),
		TemplateID: f.templateID,
	}
	switch {
	case f.batchFile != "":
		rows, err := loadBatchFile(f.batchFile, maxBytes)
		if err != nil {
			return req, err
		}
		req.Batch = rows
	case f.inputFile != "":
		in, err := product.LoadInputFile(f.inputFile)
		if err != nil {
			return req, err
		}
		in, err = resolveInputImages(in, filepath.Dir(f.inputFile), maxBytes)
		if err != nil {
			return req, err
		}
		req.Single = &in
	case cmd.Flags().Changed("name") || f.input.Image != "":
		in, err := resolveInputImages(f.input, "", maxBytes)
		if err != nil {
			return req, err
		}
		req.Single = &in
	default:
		return req, errors.New("provide --name and --image, --input or --batch")
	}
	return req, nil
}

// reportRun prints a finished run with its results.
func reportRun(cmd *cobra.Command, ctx *commandContext, manager *generation.Manager, task *tasks.Task, imagesDir string) error {
	results, err := manager.Tasks().ListResults(cmd.Context(), task.ID)
	if err != nil {
		return err
	}
	dto := api.WithResults(api.FromTask(task), results)
	if ctx.jsonOutput() {
		return writeJSON(cmd, dto)
	}
	out := cmd.OutOrStdout()
	renderTaskDetail(out, dto)
	if imagesDir != "" && len(results) > 0 {
		paths, err := saveResultImages(imagesDir, results)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nWrote %d images to %s\n", len(paths), imagesDir)
	}
	return nil
}
