package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"listingsmith/internal/logging"
	"listingsmith/internal/services"
	"listingsmith/internal/stage"
	"listingsmith/internal/tasks"
)

// errRunCancelled reports that the task left processing while the run was active.
var errRunCancelled = errors.New("run cancelled")

// Generate validates req, creates a processing task and runs it to
// completion. Validation and busy errors are returned before any task exists.
// Failures after that point are recorded on the returned task, not returned.
func (m *Manager) Generate(ctx context.Context, req Request) (*tasks.Task, error) {
	task, p, release, err := m.admit(ctx, req)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.execute(ctx, task, p)
}

// Submit is Generate without waiting: the run continues in the background
// after ctx ends and the freshly created task is returned.
func (m *Manager) Submit(ctx context.Context, req Request) (*tasks.Task, error) {
	task, p, release, err := m.admit(ctx, req)
	if err != nil {
		return nil, err
	}
	m.background(ctx, task, p, release)
	return task, nil
}

// Start runs a pending task, typically a spreadsheet import.
func (m *Manager) Start(ctx context.Context, id string) (*tasks.Task, error) {
	task, p, release, err := m.readmit(ctx, id, tasks.StatusPending, m.tasks.Start)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.execute(ctx, task, p)
}

// SubmitStart is Start without waiting.
func (m *Manager) SubmitStart(ctx context.Context, id string) (*tasks.Task, error) {
	task, p, release, err := m.readmit(ctx, id, tasks.StatusPending, m.tasks.Start)
	if err != nil {
		return nil, err
	}
	m.background(ctx, task, p, release)
	return task, nil
}

// Retry re-runs a failed task from its stored input with progress reset.
func (m *Manager) Retry(ctx context.Context, id string) (*tasks.Task, error) {
	task, p, release, err := m.readmit(ctx, id, tasks.StatusFailed, m.tasks.Retry)
	if err != nil {
		return nil, err
	}
	defer release()
	return m.execute(ctx, task, p)
}

// SubmitRetry is Retry without waiting.
func (m *Manager) SubmitRetry(ctx context.Context, id string) (*tasks.Task, error) {
	task, p, release, err := m.readmit(ctx, id, tasks.StatusFailed, m.tasks.Retry)
	if err != nil {
		return nil, err
	}
	m.background(ctx, task, p, release)
	return task, nil
}

// Cancel fails a processing task and stops its run if this process owns it.
// A run in another process notices on its next progress write.
func (m *Manager) Cancel(ctx context.Context, id string) (*tasks.Task, error) {
	task, err := m.tasks.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	local := m.cancelRun(id)
	logging.WithContext(services.WithTaskID(ctx, id), m.logger).Info(
		"generation cancel requested",
		logging.String(logging.FieldEventType, "generation_cancel"),
		logging.Bool("local_run", local),
	)
	return task, nil
}

func (m *Manager) admit(ctx context.Context, req Request) (*tasks.Task, plan, func(), error) {
	p, err := m.planRequest(ctx, req)
	if err != nil {
		return nil, plan{}, nil, err
	}
	release, err := m.guard.acquire(p.name)
	if err != nil {
		return nil, plan{}, nil, err
	}
	task, err := m.tasks.Append(ctx, &tasks.Task{
		Name:       p.name,
		Kind:       p.kind,
		Status:     tasks.StatusProcessing,
		TotalItems: len(p.products),
		Mode:       p.mode,
		TemplateID: p.templateID,
		Input:      p.snapshot,
	})
	if err != nil {
		release()
		return nil, plan{}, nil, fmt.Errorf("create task: %w", err)
	}
	m.guard.mark(task.ID)
	return task, p, release, nil
}

func (m *Manager) readmit(
	ctx context.Context,
	id string,
	from tasks.Status,
	transition func(context.Context, string) (*tasks.Task, error),
) (*tasks.Task, plan, func(), error) {
	current, err := m.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, plan{}, nil, err
	}
	if current.Status != from {
		return nil, plan{}, nil, services.Wrap(
			services.ErrConflict,
			"generation",
			"rerun",
			fmt.Sprintf("task %s is %s", current.ID, current.Status),
			nil,
		)
	}
	p, err := m.planTask(current)
	if err != nil {
		return nil, plan{}, nil, err
	}
	release, err := m.guard.acquire(current.ID)
	if err != nil {
		return nil, plan{}, nil, err
	}
	task, err := transition(ctx, id)
	if err != nil {
		release()
		return nil, plan{}, nil, err
	}
	if task.TotalItems != len(p.products) {
		task, err = m.tasks.UpdateByID(ctx, id, func(t *tasks.Task) error {
			t.TotalItems = len(p.products)
			return nil
		})
		if err != nil {
			release()
			return nil, plan{}, nil, err
		}
	}
	return task, p, release, nil
}

func (m *Manager) background(ctx context.Context, task *tasks.Task, p plan, release func()) {
	runCtx := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer release()
		if _, err := m.execute(runCtx, task, p); err != nil {
			m.logger.Error("background generation ended with error",
				logging.String(logging.FieldTaskID, task.ID),
				logging.Error(err),
			)
		}
	}()
}

// execute drives a processing task through its unit-steps and finalizes it.
func (m *Manager) execute(ctx context.Context, task *tasks.Task, p plan) (*tasks.Task, error) {
	runCtx, cancel := context.WithCancel(services.WithTaskID(ctx, task.ID))
	defer cancel()
	m.registerRun(task.ID, cancel)
	defer m.unregisterRun(task.ID)

	persistCtx := context.WithoutCancel(runCtx)
	logger := logging.WithContext(runCtx, m.logger)
	started := time.Now()
	logger.Info(
		"generation started",
		logging.String(logging.FieldEventType, "generation_start"),
		logging.String(logging.FieldMode, string(task.Kind)),
		logging.String("template_mode", string(p.mode)),
		logging.Int("total_items", len(p.products)),
	)

	if err := m.runSteps(runCtx, logger, task.ID, p); err != nil {
		return m.abort(persistCtx, logger, task.ID, err)
	}
	if err := runCtx.Err(); err != nil {
		return m.abort(persistCtx, logger, task.ID, err)
	}

	results := m.synthesize(runCtx, p)
	if err := runCtx.Err(); err != nil {
		return m.abort(persistCtx, logger, task.ID, err)
	}
	if err := m.tasks.ReplaceResults(runCtx, task.ID, results); err != nil {
		return m.abort(persistCtx, logger, task.ID, fmt.Errorf("store results: %w", err))
	}
	completed, err := m.tasks.Complete(runCtx, task.ID)
	if err != nil {
		m.clearResults(persistCtx, logger, task.ID)
		if errors.Is(err, services.ErrConflict) {
			err = errRunCancelled
		}
		return m.abort(persistCtx, logger, task.ID, err)
	}

	m.finalize(persistCtx, logger, completed, p, results)
	m.notify(logger, m.notifier.NotifyTaskCompleted(persistCtx, completed, len(results)))

	logger.Info(
		"generation completed",
		logging.String(logging.FieldEventType, "generation_complete"),
		logging.Int("results", len(results)),
		logging.Duration("duration", time.Since(started)),
	)
	return m.tasks.GetByID(persistCtx, task.ID)
}

func (m *Manager) runSteps(ctx context.Context, logger *slog.Logger, taskID string, p plan) error {
	sampler := logging.NewProgressSampler(25)
	done := 0
	for _, item := range p.products {
		for _, step := range stage.Steps() {
			stepCtx := services.WithStep(ctx, string(step))
			if err := m.unit.Execute(stepCtx, step, item); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return fmt.Errorf("%s %q: %w", step, item.Name, err)
			}
			done++
			percent, completedItems := stage.Progress(done, len(p.products))
			if _, err := m.tasks.UpdateProgress(ctx, taskID, percent, completedItems); err != nil {
				switch {
				case errors.Is(err, services.ErrConflict):
					return errRunCancelled
				case ctx.Err() != nil:
					return ctx.Err()
				default:
					logging.WarnWithContext(logger, "progress update not persisted", "persistence_failed",
						logging.Error(err),
						logging.Int("progress", percent),
						logging.String(logging.FieldErrorHint, "check database access"),
						logging.String(logging.FieldImpact, "task progress lags until the next step"),
					)
				}
			}
			if sampler.ShouldLog(percent, string(step)) {
				logger.Info(
					"generation progress",
					logging.String(logging.FieldEventType, "generation_progress"),
					logging.String(logging.FieldStep, string(step)),
					logging.Int("progress", percent),
					logging.Int("completed_items", completedItems),
				)
			}
		}
	}
	return nil
}
