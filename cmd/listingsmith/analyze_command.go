package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"listingsmith/internal/api"
	"listingsmith/internal/product"
	"listingsmith/internal/services/vision"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var caption bool
	var applyPath string

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Suggest product attributes from an image",
		Long: `Sends the image to the configured vision model. With --apply, the
suggestions are merged into a product JSON file (created when missing)
that "listingsmith generate --input" accepts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			img, err := product.CheckImage(data, cfg.Upload.MaxImageBytes)
			if err != nil {
				return err
			}
			analyzer, err := vision.NewFromConfig(cfg, ctx.logger(cfg))
			if err != nil {
				return err
			}

			if caption {
				text, err := analyzer.Caption(cmd.Context(), img)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.CaptionResponse{Caption: text})
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			analysis, err := analyzer.Analyze(cmd.Context(), img)
			if err != nil {
				return err
			}
			if applyPath != "" {
				if err := applyAnalysisFile(applyPath, args[0], analysis); err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, analysis)
			}
			printAnalysis(cmd.OutOrStdout(), analysis)
			if applyPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nUpdated %s\n", applyPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&caption, "caption", false, "Return a one-sentence caption instead of a full analysis")
	cmd.Flags().StringVar(&applyPath, "apply", "", "Merge suggestions into this product JSON file")
	cmd.MarkFlagsMutuallyExclusive("caption", "apply")
	return cmd
}

// applyAnalysisFile merges analysis into the product file at path. A new
// file references the analyzed image relative to itself.
func applyAnalysisFile(path, imagePath string, analysis vision.Analysis) error {
	in, err := product.LoadInputFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		in = product.Input{}
	}
	if strings.TrimSpace(in.Image) == "" {
		if abs, err := filepath.Abs(imagePath); err == nil {
			imagePath = abs
		}
		in.Image = imagePath
	}
	return product.SaveInputFile(path, product.ApplyAnalysis(in, analysis))
}

func printAnalysis(out io.Writer, a vision.Analysis) {
	fmt.Fprintf(out, "Description:     %s\n", a.Description)
	fmt.Fprintf(out, "Category:        %s\n", a.Category)
	fmt.Fprintf(out, "Style:           %s\n", a.Style)
	fmt.Fprintf(out, "Target audience: %s\n", a.TargetAudience)
	if len(a.Keywords) > 0 {
		fmt.Fprintf(out, "Keywords:        %s\n", strings.Join(a.Keywords, ", "))
	}
	for i, point := range a.SellingPoints {
		fmt.Fprintf(out, "  %d. %s\n", i+1, point)
	}
}
