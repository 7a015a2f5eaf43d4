package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"listingsmith/internal/api"
	"listingsmith/internal/generation"
	"listingsmith/internal/tasks"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	resultCmd := &cobra.Command{
		Use:     "result",
		Aliases: []string{"results"},
		Short:   "Select and edit generated results",
	}
	resultCmd.AddCommand(newResultSelectCommand(ctx))
	resultCmd.AddCommand(newResultEditCommand(ctx))
	return resultCmd
}

func printResult(cmd *cobra.Command, ctx *commandContext, result *tasks.Result, verb string) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.ResultResponse{Result: *result})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Result %s %s\n", result.ID, verb)
	fmt.Fprintf(out, "Title:         %s\n", result.Title)
	fmt.Fprintf(out, "Selling point: %s\n", oneLine(result.SellingPoint))
	return nil
}

func newResultSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <result-id>",
		Short: "Mark a result as the task's chosen result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				result, err := manager.SelectResult(runCtx, args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, result, "selected")
			})
		},
	}
}

func newResultEditCommand(ctx *commandContext) *cobra.Command {
	var title, sellingPoint string
	cmd := &cobra.Command{
		Use:   "edit <result-id>",
		Short: "Edit a result's title or selling point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch tasks.ResultPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("selling-point") {
				patch.SellingPoint = &sellingPoint
			}
			if patch.Empty() {
				return errors.New("nothing to change: pass --title or --selling-point")
			}
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				result, err := manager.UpdateResult(runCtx, args[0], patch)
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, result, "updated")
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&sellingPoint, "selling-point", "", "New selling point")
	return cmd
}
