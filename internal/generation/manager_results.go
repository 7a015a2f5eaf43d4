package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"listingsmith/internal/logging"
	"listingsmith/internal/product"
	"listingsmith/internal/services"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/tasks"
)

// SelectResult makes id the only selected result of its task.
func (m *Manager) SelectResult(ctx context.Context, id string) (*tasks.Result, error) {
	result, err := m.tasks.SelectResult(ctx, id)
	if err != nil {
		return nil, err
	}
	logging.WithContext(services.WithTaskID(ctx, result.TaskID), m.logger).Debug(
		"result selected",
		logging.String("result_id", result.ID),
	)
	return result, nil
}

// UpdateResult merges the given title and selling point into a result. An
// empty patch returns the result unchanged.
func (m *Manager) UpdateResult(ctx context.Context, id string, patch tasks.ResultPatch) (*tasks.Result, error) {
	if patch.Empty() {
		return m.tasks.GetResult(ctx, id)
	}
	return m.tasks.UpdateResult(ctx, id, patch)
}

// Copy runs the copywriting adapter for an arbitrary product summary.
func (m *Manager) Copy(ctx context.Context, p deepseek.Product, style deepseek.Style) deepseek.Copy {
	return m.copywriter.Generate(ctx, p, style)
}

// ApplyCopy writes styled copy into a result: the copy title replaces the
// result title and the copy body replaces the selling point. The copy is also
// recorded on the task's newest history entry when one exists.
func (m *Manager) ApplyCopy(ctx context.Context, resultID string, style deepseek.Style) (*tasks.Result, deepseek.Copy, error) {
	result, err := m.tasks.GetResult(ctx, resultID)
	if err != nil {
		return nil, deepseek.Copy{}, err
	}
	logger := logging.WithContext(services.WithTaskID(ctx, result.TaskID), m.logger)

	generated := m.copywriter.Generate(ctx, deepseek.Product{
		Name:           result.ProductName,
		Brand:          result.Brand,
		Category:       result.Category,
		Material:       result.Material,
		Color:          result.Color,
		Size:           result.Size,
		TargetAudience: result.TargetAudience,
		SellingPoints:  result.SellingPoint,
	}, style)

	title, content := generated.Title, generated.Content
	updated, err := m.tasks.UpdateResult(ctx, resultID, tasks.ResultPatch{Title: &title, SellingPoint: &content})
	if err != nil {
		return nil, generated, err
	}

	if err := m.history.AppendCopy(ctx, result.TaskID, generated); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.Debug("no history entry for copy", logging.String("result_id", resultID))
		} else {
			m.warnPersistence(logger, "record copy in history", err)
		}
	}

	logger.Info(
		"copy applied",
		logging.String(logging.FieldEventType, "copy_applied"),
		logging.String("result_id", resultID),
		logging.String("style", string(style)),
		logging.Bool("fallback", generated.Fallback),
	)
	return updated, generated, nil
}

// ImportSpreadsheet parses a workbook into a pending excel task. No work runs
// until the task is started. Relative image paths resolve against imageDir.
func (m *Manager) ImportSpreadsheet(ctx context.Context, r io.Reader, fileName, imageDir string) (*tasks.Task, error) {
	rows, err := product.ReadSpreadsheet(r, fileName, product.SpreadsheetOptions{
		ImageDir:      imageDir,
		MaxImageBytes: m.cfg.Upload.MaxImageBytes,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, invalidRequest(fmt.Sprintf("%s has no product rows", filepath.Base(fileName)))
	}
	task, err := m.tasks.Append(ctx, &tasks.Task{
		Name:       m.engine.Labels().ExcelTaskName(filepath.Base(fileName)),
		Kind:       tasks.KindExcel,
		Status:     tasks.StatusPending,
		TotalItems: product.CountNamed(rows),
		Mode:       tasks.ModeDefault,
		Input:      product.Snapshot{Batch: rows, Source: filepath.Base(fileName)},
	})
	if err != nil {
		return nil, fmt.Errorf("create import task: %w", err)
	}
	logging.WithContext(services.WithTaskID(ctx, task.ID), m.logger).Info(
		"spreadsheet imported",
		logging.String(logging.FieldEventType, "spreadsheet_imported"),
		logging.String("file", filepath.Base(fileName)),
		logging.Int("rows", len(rows)),
	)
	return task, nil
}

// DeleteTask removes a task and its results. A running task is cancelled first.
func (m *Manager) DeleteTask(ctx context.Context, id string) error {
	m.cancelRun(id)
	return m.tasks.RemoveByID(ctx, id)
}
