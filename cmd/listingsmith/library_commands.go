package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"listingsmith/internal/api"
	"listingsmith/internal/generation"
	"listingsmith/internal/library"
)

func newMaterialCommand(ctx *commandContext) *cobra.Command {
	materialCmd := &cobra.Command{
		Use:     "material",
		Aliases: []string{"materials"},
		Short:   "Browse the material library",
	}

	var filter library.MaterialFilter
	var typeFlag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved images and text",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Type = library.MaterialType(strings.ToLower(strings.TrimSpace(typeFlag)))
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				items, err := manager.Materials().ListAll(runCtx, filter)
				if err != nil {
					return err
				}
				dtos := api.FromMaterials(items)
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"items": dtos})
				}
				out := cmd.OutOrStdout()
				if len(dtos) == 0 {
					fmt.Fprintln(out, "No materials")
					return nil
				}
				rows := make([][]string, 0, len(dtos))
				for _, m := range dtos {
					content := m.Content
					if m.Type == string(library.MaterialImage) {
						content = "(image)"
					}
					rows = append(rows, []string{m.ID, m.Type, m.Category, yesNo(m.IsFavorite), oneLine(content)})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Type", "Category", "Favorite", "Content"}, rows, nil))
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&typeFlag, "type", "", "Filter by type: image or text")
	listCmd.Flags().StringVar(&filter.Category, "category", "", "Filter by category")
	listCmd.Flags().BoolVar(&filter.FavoritesOnly, "favorites", false, "Only favorites")
	listCmd.Flags().StringVar(&filter.Search, "search", "", "Match tags or content")

	materialCmd.AddCommand(listCmd)
	materialCmd.AddCommand(newFavoriteCommand(ctx, "material", func(runCtx context.Context, m *generation.Manager, id string) (bool, error) {
		item, err := m.Materials().ToggleFavorite(runCtx, id)
		if err != nil {
			return false, err
		}
		return item.IsFavorite, nil
	}))
	materialCmd.AddCommand(newRemoveCommand(ctx, "material", func(runCtx context.Context, m *generation.Manager, id string) error {
		return m.Materials().RemoveByID(runCtx, id)
	}))
	return materialCmd
}

func newTemplateCommand(ctx *commandContext) *cobra.Command {
	templateCmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Browse the template library",
	}

	var filter library.TemplateFilter
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				items, err := manager.Templates().ListAll(runCtx, filter)
				if err != nil {
					return err
				}
				dtos := api.FromTemplates(items)
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"items": dtos})
				}
				out := cmd.OutOrStdout()
				if len(dtos) == 0 {
					fmt.Fprintln(out, "No templates")
					return nil
				}
				rows := make([][]string, 0, len(dtos))
				for _, t := range dtos {
					rows = append(rows, []string{t.ID, t.Name, t.Category, t.Style, yesNo(t.IsFavorite), strings.Join(t.Tags, ", ")})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Category", "Style", "Favorite", "Tags"}, rows, nil))
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&filter.Category, "category", "", "Filter by category")
	listCmd.Flags().BoolVar(&filter.FavoritesOnly, "favorites", false, "Only favorites")
	listCmd.Flags().StringVar(&filter.Search, "search", "", "Match template names")

	templateCmd.AddCommand(listCmd)
	templateCmd.AddCommand(newFavoriteCommand(ctx, "template", func(runCtx context.Context, m *generation.Manager, id string) (bool, error) {
		item, err := m.Templates().ToggleFavorite(runCtx, id)
		if err != nil {
			return false, err
		}
		return item.IsFavorite, nil
	}))
	templateCmd.AddCommand(newRemoveCommand(ctx, "template", func(runCtx context.Context, m *generation.Manager, id string) error {
		return m.Templates().RemoveByID(runCtx, id)
	}))
	return templateCmd
}

func newFavoriteCommand(ctx *commandContext, noun string, toggle func(context.Context, *generation.Manager, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle a " + noun + "'s favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				favorite, err := toggle(runCtx, manager, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"id": args[0], "isFavorite": favorite})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s favorite: %s\n", noun, args[0], yesNo(favorite))
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext, noun string, remove func(context.Context, *generation.Manager, string) error) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a " + noun,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				if err := remove(runCtx, manager, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s deleted\n", noun, args[0])
				return nil
			})
		},
	}
}
