package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"listingsmith/internal/api"
	"listingsmith/internal/generation"
	"listingsmith/internal/services"
	"listingsmith/internal/tasks"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Inspect and control generation tasks",
	}
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskShowCommand(ctx))
	taskCmd.AddCommand(newTaskRunCommand(ctx, "start", "Run a pending task", (*generation.Manager).Start))
	taskCmd.AddCommand(newTaskRunCommand(ctx, "retry", "Re-run a failed task", (*generation.Manager).Retry))
	taskCmd.AddCommand(newTaskCancelCommand(ctx))
	taskCmd.AddCommand(newTaskDeleteCommand(ctx))
	return taskCmd
}

func parseStatuses(values []string) ([]tasks.Status, error) {
	statuses := make([]tasks.Status, 0, len(values))
	for _, value := range values {
		status, ok := tasks.ParseStatus(value)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "cli", "parse status",
				fmt.Sprintf("unknown status %q (want %s)", value, joinStatuses()), nil)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func joinStatuses() string {
	names := make([]string, 0, 4)
	for _, s := range tasks.AllStatuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				items, err := manager.Tasks().ListAll(runCtx, statuses...)
				if err != nil {
					return err
				}
				dtos := api.FromTasks(items)
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.TaskListResponse{Items: dtos})
				}
				renderTasks(cmd.OutOrStdout(), dtos)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task and its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				task, err := manager.Tasks().GetByID(runCtx, args[0])
				if err != nil {
					return err
				}
				return reportRun(cmd, ctx, manager, task, "")
			})
		},
	}
}

type runFunc func(*generation.Manager, context.Context, string) (*tasks.Task, error)

func newTaskRunCommand(ctx *commandContext, use, short string, run runFunc) *cobra.Command {
	var imagesDir string
	cmd := &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				task, err := run(manager, runCtx, args[0])
				if err != nil {
					return err
				}
				return reportRun(cmd, ctx, manager, task, imagesDir)
			})
		},
	}
	cmd.Flags().StringVar(&imagesDir, "save-images", "", "Write composited images to this directory")
	return cmd
}

func newTaskCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a pending or processing task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				task, err := manager.Cancel(runCtx, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromTask(task))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s cancelled\n", task.ID)
				return nil
			})
		},
	}
}

func newTaskDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <task-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its results",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(runCtx context.Context, manager *generation.Manager) error {
				if err := manager.DeleteTask(runCtx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s deleted\n", args[0])
				return nil
			})
		},
	}
}
