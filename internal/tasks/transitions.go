package tasks

import (
	"context"
	"fmt"
	"slices"
	"time"

	"listingsmith/internal/services"
	"listingsmith/internal/storage"
)

func conflict(operation string, task *Task) error {
	return services.Wrap(
		services.ErrConflict,
		"tasks",
		operation,
		fmt.Sprintf("task %s is %s", task.ID, task.Status),
		nil,
	)
}

func (s *Store) transition(ctx context.Context, id, operation string, from []Status, apply func(task *Task)) (*Task, error) {
	return s.UpdateByID(ctx, id, func(task *Task) error {
		if !slices.Contains(from, task.Status) {
			return conflict(operation, task)
		}
		apply(task)
		return nil
	})
}

func resetRun(task *Task) {
	task.Status = StatusProcessing
	task.Progress = 0
	task.CompletedItems = 0
	task.ErrorMessage = ""
	task.CompletedAt = nil
}

// Start moves a pending task to processing.
func (s *Store) Start(ctx context.Context, id string) (*Task, error) {
	return s.transition(ctx, id, "start", []Status{StatusPending}, resetRun)
}

// Retry moves a failed task back to processing with progress reset to zero.
func (s *Store) Retry(ctx context.Context, id string) (*Task, error) {
	return s.transition(ctx, id, "retry", []Status{StatusFailed}, resetRun)
}

// Cancel fails a processing task with CancelledMessage.
func (s *Store) Cancel(ctx context.Context, id string) (*Task, error) {
	return s.transition(ctx, id, "cancel", []Status{StatusProcessing}, func(task *Task) {
		task.Status = StatusFailed
		task.ErrorMessage = CancelledMessage
	})
}

// Complete finalizes a processing task: progress 100, every item done.
func (s *Store) Complete(ctx context.Context, id string) (*Task, error) {
	return s.transition(ctx, id, "complete", []Status{StatusProcessing}, func(task *Task) {
		now := time.Now().UTC()
		task.Status = StatusCompleted
		task.Progress = 100
		task.CompletedItems = task.TotalItems
		task.ErrorMessage = ""
		task.CompletedAt = &now
	})
}

// Fail marks a processing task failed with the given message.
func (s *Store) Fail(ctx context.Context, id, message string) (*Task, error) {
	return s.transition(ctx, id, "fail", []Status{StatusProcessing}, func(task *Task) {
		task.Status = StatusFailed
		task.ErrorMessage = message
	})
}

// UpdateProgress records step progress for a processing task. Values never
// move backwards, completed items are clamped to the total, and progress stays
// below 100 until Complete runs. A task that is no longer processing returns
// an error wrapping services.ErrConflict.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress, completedItems int) (*Task, error) {
	return s.transition(ctx, id, "progress", []Status{StatusProcessing}, func(task *Task) {
		progress = min(max(progress, 0), 99)
		task.Progress = max(task.Progress, progress)
		completedItems = min(max(completedItems, 0), task.TotalItems)
		task.CompletedItems = max(task.CompletedItems, completedItems)
	})
}

// MarkInterrupted fails every processing task. It runs when the daemon starts,
// before any pipeline could own a task.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.Exec(
		ctx,
		`UPDATE tasks SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusFailed,
		InterruptedMessage,
		storage.FormatTime(time.Now()),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted tasks: %w", err)
	}
	return res.RowsAffected()
}
