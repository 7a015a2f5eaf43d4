package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"listingsmith/internal/product"
	"listingsmith/internal/services"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/storage"
	"listingsmith/internal/tasks"
)

// DefaultLimit is the ring size used when none is configured.
const DefaultLimit = 50

// Entry is a snapshot of one generation run.
type Entry struct {
	ID                 string           `json:"id"`
	Timestamp          time.Time        `json:"timestamp"`
	TaskID             string           `json:"taskId,omitempty"`
	ProductInfo        product.Snapshot `json:"productInfo"`
	GeneratedResults   []tasks.Result   `json:"generatedResults"`
	CopywritingResults []deepseek.Copy  `json:"copywritingResults"`
}

// Log is the capped history ring, newest first.
type Log struct {
	db    *storage.DB
	limit int
}

// NewLog wraps an open database. A limit <= 0 uses DefaultLimit.
func NewLog(db *storage.DB, limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{db: db, limit: limit}
}

// Limit returns the ring size.
func (l *Log) Limit() int {
	return l.limit
}

func decodeEntry(raw string) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("decode history entry: %w", err)
	}
	if entry.CopywritingResults == nil {
		entry.CopywritingResults = []deepseek.Copy{}
	}
	return &entry, nil
}

func encodeEntry(entry *Entry) (string, error) {
	if entry.CopywritingResults == nil {
		entry.CopywritingResults = []deepseek.Copy{}
	}
	if entry.GeneratedResults == nil {
		entry.GeneratedResults = []tasks.Result{}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode history entry: %w", err)
	}
	return string(data), nil
}

// Append adds an entry at the head and evicts the oldest entries beyond the limit.
func (l *Log) Append(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("history entry is nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	raw, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	return l.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (id, task_id, entry_json, created_at) VALUES (?, ?, ?, ?)`,
			entry.ID, storage.NullableString(entry.TaskID), raw, storage.FormatTime(entry.Timestamp),
		); err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM history WHERE id NOT IN (
                 SELECT id FROM history ORDER BY created_at DESC, rowid DESC LIMIT ?
             )`,
			l.limit,
		); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

// ListAll returns entries newest first.
func (l *Log) ListAll(ctx context.Context) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT entry_json FROM history ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// GetByID fetches one entry.
func (l *Log) GetByID(ctx context.Context, id string) (*Entry, error) {
	var raw string
	err := l.db.QueryRowContext(ctx, `SELECT entry_json FROM history WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "history", "get", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return decodeEntry(raw)
}

// RemoveByID deletes one entry.
func (l *Log) RemoveByID(ctx context.Context, id string) error {
	res, err := l.db.Exec(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "history", "delete", id, nil)
	}
	return nil
}

// AppendCopy records copywriting output on the newest entry for a task.
func (l *Log) AppendCopy(ctx context.Context, taskID string, copyResult deepseek.Copy) error {
	return l.db.InTx(ctx, func(tx *sql.Tx) error {
		var (
			id  string
			raw string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, entry_json FROM history WHERE task_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
			taskID,
		).Scan(&id, &raw)
		if errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrNotFound, "history", "append copy", "no entry for task "+taskID, nil)
		}
		if err != nil {
			return fmt.Errorf("load history entry: %w", err)
		}
		entry, err := decodeEntry(raw)
		if err != nil {
			return err
		}
		entry.CopywritingResults = append(entry.CopywritingResults, copyResult)
		updated, err := encodeEntry(entry)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE history SET entry_json = ? WHERE id = ?`, updated, id); err != nil {
			return fmt.Errorf("update history entry: %w", err)
		}
		return nil
	})
}
