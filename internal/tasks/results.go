package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"listingsmith/internal/services"
	"listingsmith/internal/storage"
)

const resultColumns = "id, task_id, position, product_id, product_name, main_image, title, selling_point, selected, saved_to_library, status, variant, brand, category, material, color, size, target_audience, created_at"

func scanResult(scanner rowScanner) (*Result, error) {
	var (
		result     Result
		selected   int
		saved      int
		status     string
		variant    int
		createdRaw string
	)
	if err := scanner.Scan(
		&result.ID,
		&result.TaskID,
		&result.Position,
		&result.ProductID,
		&result.ProductName,
		&result.MainImage,
		&result.Title,
		&result.SellingPoint,
		&selected,
		&saved,
		&status,
		&variant,
		&result.Brand,
		&result.Category,
		&result.Material,
		&result.Color,
		&result.Size,
		&result.TargetAudience,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	result.Selected = selected != 0
	result.SavedToLibrary = saved != 0
	result.Status = Status(status)
	result.Variant = Variant(variant)
	if created, err := storage.ParseTime(createdRaw); err == nil {
		result.CreatedAt = created
	}
	return &result, nil
}

func resultNotFound(operation, id string) error {
	return services.Wrap(services.ErrNotFound, "tasks", operation, fmt.Sprintf("result %s", id), nil)
}

// ReplaceResults stores the result set of a task, replacing any set from an
// earlier run. Ids are assigned when missing and positions follow slice order.
func (s *Store) ReplaceResults(ctx context.Context, taskID string, results []*Result) error {
	now := time.Now().UTC()
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE task_id = ?`, taskID); err != nil {
			return fmt.Errorf("clear results: %w", err)
		}
		for idx, result := range results {
			if result.ID == "" {
				result.ID = uuid.NewString()
			}
			if result.CreatedAt.IsZero() {
				result.CreatedAt = now
			}
			if result.Status == "" {
				result.Status = StatusCompleted
			}
			result.TaskID = taskID
			result.Position = idx
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO results (`+resultColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				result.ID,
				result.TaskID,
				result.Position,
				result.ProductID,
				result.ProductName,
				result.MainImage,
				result.Title,
				result.SellingPoint,
				storage.BoolToInt(result.Selected),
				storage.BoolToInt(result.SavedToLibrary),
				result.Status,
				int(result.Variant),
				result.Brand,
				result.Category,
				result.Material,
				result.Color,
				result.Size,
				result.TargetAudience,
				storage.FormatTime(result.CreatedAt),
			); err != nil {
				return fmt.Errorf("insert result: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) queryResults(ctx context.Context, where string, args ...any) ([]*Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM results `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

// ListResults returns the result set of a task in generation order.
func (s *Store) ListResults(ctx context.Context, taskID string) ([]*Result, error) {
	return s.queryResults(ctx, `WHERE task_id = ? ORDER BY position`, taskID)
}

// ListSelected returns selected results. An empty taskID spans every task,
// newest task first.
func (s *Store) ListSelected(ctx context.Context, taskID string) ([]*Result, error) {
	if taskID != "" {
		return s.queryResults(ctx, `WHERE task_id = ? AND selected = 1 ORDER BY position`, taskID)
	}
	return s.queryResults(ctx,
		`WHERE selected = 1 ORDER BY (SELECT created_at FROM tasks WHERE tasks.id = results.task_id) DESC, position`)
}

// GetResult fetches one result.
func (s *Store) GetResult(ctx context.Context, id string) (*Result, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE id = ?`, id)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resultNotFound("get result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

// SelectResult marks the result selected and clears the flag on every other
// result of the same task.
func (s *Store) SelectResult(ctx context.Context, id string) (*Result, error) {
	var selected *Result
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		var taskID string
		err := tx.QueryRowContext(ctx, `SELECT task_id FROM results WHERE id = ?`, id).Scan(&taskID)
		if errors.Is(err, sql.ErrNoRows) {
			return resultNotFound("select result", id)
		}
		if err != nil {
			return fmt.Errorf("load result: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE results SET selected = CASE WHEN id = ? THEN 1 ELSE 0 END WHERE task_id = ?`,
			id, taskID,
		); err != nil {
			return fmt.Errorf("select result: %w", err)
		}
		selected, err = scanResult(tx.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return selected, nil
}

// UpdateResult applies a shallow merge of the title and selling point.
func (s *Store) UpdateResult(ctx context.Context, id string, patch ResultPatch) (*Result, error) {
	var updated *Result
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		result, err := scanResult(tx.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return resultNotFound("update result", id)
		}
		if err != nil {
			return fmt.Errorf("load result: %w", err)
		}
		if patch.Title != nil {
			result.Title = *patch.Title
		}
		if patch.SellingPoint != nil {
			result.SellingPoint = *patch.SellingPoint
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE results SET title = ?, selling_point = ? WHERE id = ?`,
			result.Title, result.SellingPoint, id,
		); err != nil {
			return fmt.Errorf("update result: %w", err)
		}
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkSaved flags every result of a task as saved to the material library.
func (s *Store) MarkSaved(ctx context.Context, taskID string) error {
	if _, err := s.db.Exec(ctx, `UPDATE results SET saved_to_library = 1 WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("mark results saved: %w", err)
	}
	return nil
}
