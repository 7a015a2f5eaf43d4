package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"listingsmith/internal/services"
	"listingsmith/internal/storage"
)

// Store persists tasks and their results.
type Store struct {
	db *storage.DB
}

// NewStore wraps an open database.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

const taskColumns = "id, name, kind, status, progress, total_items, completed_items, mode, template_id, input_json, error_message, created_at, updated_at, completed_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanTask(scanner rowScanner) (*Task, error) {
	var (
		task         Task
		kind         string
		status       string
		mode         string
		templateID   sql.NullString
		inputJSON    sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&task.ID,
		&task.Name,
		&kind,
		&status,
		&task.Progress,
		&task.TotalItems,
		&task.CompletedItems,
		&mode,
		&templateID,
		&inputJSON,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	task.Kind = Kind(kind)
	task.Status = Status(status)
	task.Mode = Mode(mode)
	task.TemplateID = templateID.String
	task.ErrorMessage = errorMessage.String
	if inputJSON.Valid && inputJSON.String != "" {
		if err := json.Unmarshal([]byte(inputJSON.String), &task.Input); err != nil {
			return nil, fmt.Errorf("decode task input: %w", err)
		}
	}
	if created, err := storage.ParseTime(createdRaw); err == nil {
		task.CreatedAt = created
	}
	if updated, err := storage.ParseTime(updatedRaw); err == nil {
		task.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := storage.ParseTime(completedRaw.String); err == nil {
			task.CompletedAt = &completed
		}
	}
	return &task, nil
}

func encodeInput(snapshot any) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode task input: %w", err)
	}
	return string(data), nil
}

func notFound(operation, id string) error {
	return services.Wrap(services.ErrNotFound, "tasks", operation, fmt.Sprintf("task %s", id), nil)
}

// Append inserts a new task. Missing ids and timestamps are assigned.
func (s *Store) Append(ctx context.Context, task *Task) (*Task, error) {
	if task == nil {
		return nil, errors.New("task is nil")
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.Mode == "" {
		task.Mode = ModeDefault
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	input, err := encodeInput(task.Input)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(
		ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Name,
		task.Kind,
		task.Status,
		task.Progress,
		task.TotalItems,
		task.CompletedItems,
		task.Mode,
		storage.NullableString(task.TemplateID),
		input,
		storage.NullableString(task.ErrorMessage),
		storage.FormatTime(task.CreatedAt),
		storage.FormatTime(task.UpdatedAt),
		storage.NullableTime(task.CompletedAt),
	); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(ctx, task.ID)
}

// GetByID fetches a task. Unknown ids return an error wrapping services.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("get", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// UpdateByID loads a task, applies fn and writes the result back inside one
// transaction. Returning an error from fn aborts the update.
func (s *Store) UpdateByID(ctx context.Context, id string, fn func(task *Task) error) (*Task, error) {
	var updated *Task
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
		task, err := scanTask(row)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("update", id)
		}
		if err != nil {
			return fmt.Errorf("load task: %w", err)
		}
		if err := fn(task); err != nil {
			return err
		}
		task.UpdatedAt = time.Now().UTC()
		input, err := encodeInput(task.Input)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE tasks
             SET name = ?, kind = ?, status = ?, progress = ?, total_items = ?, completed_items = ?,
                 mode = ?, template_id = ?, input_json = ?, error_message = ?, updated_at = ?, completed_at = ?
             WHERE id = ?`,
			task.Name,
			task.Kind,
			task.Status,
			task.Progress,
			task.TotalItems,
			task.CompletedItems,
			task.Mode,
			storage.NullableString(task.TemplateID),
			input,
			storage.NullableString(task.ErrorMessage),
			storage.FormatTime(task.UpdatedAt),
			storage.NullableTime(task.CompletedAt),
			task.ID,
		); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveByID deletes a task and, through the foreign key, its results.
func (s *Store) RemoveByID(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return notFound("delete", id)
	}
	return nil
}

// ListAll returns tasks newest first, optionally filtered by status.
func (s *Store) ListAll(ctx context.Context, statuses ...Status) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + storage.Placeholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// Counts returns the number of tasks per status. Every status is present.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Status(strings.ToLower(status))] = count
	}
	return counts, rows.Err()
}
