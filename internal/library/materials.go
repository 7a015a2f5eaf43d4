package library

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

// MaterialType distinguishes image and text materials.
type MaterialType string

const (
	MaterialImage MaterialType = "image"
	MaterialText  MaterialType = "text"
)

// Material is a reusable library entry derived from a generated result.
type Material struct {
	ID         string
	Type       MaterialType
	Content    string
	Category   string
	Tags       []string
	IsFavorite bool
	CreatedAt  time.Time
}

// MaterialFilter narrows ListAll. Zero values match everything.
type MaterialFilter struct {
	Type          MaterialType
	Category      string
	FavoritesOnly bool
	// Search matches case-insensitively against tags and content.
	Search string
}

// Materials is the material library repository.
type Materials struct {
	db *storage.DB
}

// NewMaterials wraps an open database.
func NewMaterials(db *storage.DB) *Materials {
	return &Materials{db: db}
}

const materialColumns = "id, type, content, category, tags_json, is_favorite, created_at"

func scanMaterial(scanner interface{ Scan(dest ...any) error }) (*Material, error) {
	var (
		m          Material
		kind       string
		tagsJSON   string
		favorite   int
		createdRaw string
	)
	if err := scanner.Scan(&m.ID, &kind, &m.Content, &m.Category, &tagsJSON, &favorite, &createdRaw); err != nil {
		return nil, err
	}
	m.Type = MaterialType(kind)
	m.IsFavorite = favorite != 0
	tags, err := decodeTags(tagsJSON)
	if err != nil {
		return nil, err
	}
	m.Tags = tags
	if created, err := storage.ParseTime(createdRaw); err == nil {
		m.CreatedAt = created
	}
	return &m, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// Append inserts materials. They list ahead of existing entries, and within one
// call the first item lists first.
func (m *Materials) Append(ctx context.Context, items ...*Material) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return m.db.InTx(ctx, func(tx *sql.Tx) error {
		for idx := len(items) - 1; idx >= 0; idx-- {
			item := items[idx]
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			if item.CreatedAt.IsZero() {
				item.CreatedAt = now
			}
			tags, err := encodeTags(item.Tags)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO materials (`+materialColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.Type, item.Content, item.Category, tags,
				storage.BoolToInt(item.IsFavorite), storage.FormatTime(item.CreatedAt),
			); err != nil {
				return fmt.Errorf("insert material: %w", err)
			}
		}
		return nil
	})
}

// GetByID fetches one material.
func (m *Materials) GetByID(ctx context.Context, id string) (*Material, error) {
	item, err := scanMaterial(m.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "library", "get material", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return item, nil
}

// UpdateByID applies fn to a material inside a transaction.
func (m *Materials) UpdateByID(ctx context.Context, id string, fn func(item *Material) error) (*Material, error) {
	var updated *Material
	err := m.db.InTx(ctx, func(tx *sql.Tx) error {
		item, err := scanMaterial(tx.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrNotFound, "library", "update material", id, nil)
		}
		if err != nil {
			return fmt.Errorf("load material: %w", err)
		}
		if err := fn(item); err != nil {
			return err
		}
		tags, err := encodeTags(item.Tags)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE materials SET type = ?, content = ?, category = ?, tags_json = ?, is_favorite = ? WHERE id = ?`,
			item.Type, item.Content, item.Category, tags, storage.BoolToInt(item.IsFavorite), id,
		); err != nil {
			return fmt.Errorf("update material: %w", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleFavorite flips the favorite flag.
func (m *Materials) ToggleFavorite(ctx context.Context, id string) (*Material, error) {
	return m.UpdateByID(ctx, id, func(item *Material) error {
		item.IsFavorite = !item.IsFavorite
		return nil
	})
}

// RemoveByID deletes a material.
func (m *Materials) RemoveByID(ctx context.Context, id string) error {
	res, err := m.db.Exec(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "library", "delete material", id, nil)
	}
	return nil
}

// ListAll returns materials newest first.
func (m *Materials) ListAll(ctx context.Context, filter MaterialFilter) ([]*Material, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.FavoritesOnly {
		clauses = append(clauses, "is_favorite = 1")
	}
	query := `SELECT ` + materialColumns + ` FROM materials`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*Material
	for rows.Next() {
		item, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		if search != "" && !matchesMaterial(item, search) {
			continue
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func matchesMaterial(item *Material, search string) bool {
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(item.Content), search)
}
