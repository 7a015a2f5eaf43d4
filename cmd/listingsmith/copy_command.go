package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"listingsmith/internal/api"
	"listingsmith/internal/generation"
	"listingsmith/internal/services/deepseek"
)

func newCopyCommand(ctx *commandContext) *cobra.Command {
	var p deepseek.Product
	var styleFlag, resultID string

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Write styled social copy for a product or a generated result",
		Long: `Without --result, copy is written for the product described by the flags.
With --result, the copy replaces that result's title and selling point.
When no copywriting key is configured, templated fallback copy is returned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			style, err := deepseek.ParseStyle(styleFlag)
			if err != nil {
				return err
			}
			if resultID == "" && strings.TrimSpace(p.Name) == "" {
				return errors.New("provide --name or --result")
			}
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				resp := api.CopyResponse{}
				if resultID != "" {
					result, generated, err := manager.ApplyCopy(runCtx, resultID, style)
					if err != nil {
						return err
					}
					resp.Copy, resp.Result = generated, result
				} else {
					resp.Copy = manager.Copy(runCtx, p, style)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				printCopy(cmd.OutOrStdout(), resp.Copy)
				if resp.Result != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "\nApplied to result %s\n", resp.Result.ID)
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "Product name")
	f.StringVar(&p.Brand, "brand", "", "Brand")
	f.StringVar(&p.Category, "category", "", "Category")
	f.StringVar(&p.Material, "material", "", "Material")
	f.StringVar(&p.Color, "color", "", "Color")
	f.StringVar(&p.Size, "size", "", "Size")
	f.StringVar(&p.TargetAudience, "audience", "", "Target audience")
	f.StringVar(&p.SellingPoints, "selling-points", "", "Selling points to work from")
	f.StringVar(&styleFlag, "style", string(deepseek.StyleHype), "Copy style (run \"listingsmith copy styles\" for the list)")
	f.StringVar(&resultID, "result", "", "Apply the copy to this result")

	cmd.AddCommand(&cobra.Command{
		Use:         "styles",
		Short:       "List copy styles",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(deepseek.Styles()))
			for _, s := range deepseek.Styles() {
				rows = append(rows, []string{string(s), s.DisplayName(), s.Description()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Style", "Name", "Description"}, rows, nil))
			return nil
		},
	})
	return cmd
}

func printCopy(out io.Writer, c deepseek.Copy) {
	fmt.Fprintln(out, c.Title)
	fmt.Fprintln(out)
	fmt.Fprintln(out, c.Content)
	if len(c.Hashtags) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, strings.Join(c.Hashtags, " "))
	}
	if c.Fallback {
		fmt.Fprintln(out, "\n(fallback copy: the copywriting model was not reachable)")
	}
}
