package generation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"listingsmith/internal/logging"
	"listingsmith/internal/services"
	"listingsmith/internal/tasks"
)

// abort records a run that stopped before completion. Cancellation and
// pipeline errors both end with the task failed; neither is returned to the
// caller, who reads the outcome from the task.
func (m *Manager) abort(ctx context.Context, logger *slog.Logger, taskID string, runErr error) (*tasks.Task, error) {
	cancelled := errors.Is(runErr, context.Canceled) || errors.Is(runErr, errRunCancelled)
	message := tasks.CancelledMessage
	if !cancelled {
		message = strings.TrimSpace(runErr.Error())
	}

	if _, err := m.tasks.Fail(ctx, taskID, message); err != nil && !errors.Is(err, services.ErrConflict) && !errors.Is(err, services.ErrNotFound) {
		logging.WarnWithContext(logger, "task failure not persisted", "persistence_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database access"),
			logging.String(logging.FieldImpact, "task may stay processing until the daemon restarts"),
		)
	}

	if cancelled {
		logger.Info(
			"generation cancelled",
			logging.String(logging.FieldEventType, "generation_cancelled"),
		)
	} else {
		logging.ErrorWithContext(logger, "generation failed", "generation_failure",
			logging.String("error_message", message),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "retry the task once the cause is fixed"),
		)
	}
	task, err := m.tasks.GetByID(ctx, taskID)
	if err == nil && !cancelled {
		m.notify(logger, m.notifier.NotifyTaskFailed(ctx, task))
	}
	return task, err
}

// notify logs a delivery failure; notifications never affect the run.
func (m *Manager) notify(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "notification not delivered", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}

func (m *Manager) clearResults(ctx context.Context, logger *slog.Logger, taskID string) {
	if err := m.tasks.ReplaceResults(ctx, taskID, nil); err != nil {
		m.warnPersistence(logger, "clear results", err)
	}
}

// warnPersistence logs a write that failed after the task completed. The run
// still counts as successful.
func (m *Manager) warnPersistence(logger *slog.Logger, operation string, err error) {
	logging.WarnWithContext(logger, operation+" failed", "persistence_failed",
		logging.Error(err),
		logging.String("operation", operation),
		logging.String(logging.FieldErrorHint, "check database access"),
		logging.String(logging.FieldImpact, "generated results are kept but the library or history is incomplete"),
	)
}
