package library

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"listingsmith/internal/services"
	"listingsmith/internal/storage"
)

// Template is a reusable style descriptor in the template library.
type Template struct {
	ID           string
	Name         string
	Category     string
	Style        string
	Preview      string
	IsFavorite   bool
	UsageCount   int
	Tags         []string
	ShopCategory string
	CreatedAt    time.Time
}

// TemplateFilter narrows ListAll. Zero values match everything.
type TemplateFilter struct {
	Category      string
	FavoritesOnly bool
	// Search matches case-insensitively against the name.
	Search string
}

// Templates is the template library repository.
type Templates struct {
	db *storage.DB
}

// NewTemplates wraps an open database.
func NewTemplates(db *storage.DB) *Templates {
	return &Templates{db: db}
}

const (
	templateColumns = "id, name, category, style, preview, is_favorite, usage_count, tags_json, shop_category, created_at"
	seededMetaKey   = "templates_seeded"
)

func scanTemplate(scanner interface{ Scan(dest ...any) error }) (*Template, error) {
	var (
		t          Template
		favorite   int
		tagsJSON   string
		createdRaw string
	)
	if err := scanner.Scan(&t.ID, &t.Name, &t.Category, &t.Style, &t.Preview, &favorite, &t.UsageCount, &tagsJSON, &t.ShopCategory, &createdRaw); err != nil {
		return nil, err
	}
	t.IsFavorite = favorite != 0
	tags, err := decodeTags(tagsJSON)
	if err != nil {
		return nil, err
	}
	t.Tags = tags
	if created, err := storage.ParseTime(createdRaw); err == nil {
		t.CreatedAt = created
	}
	return &t, nil
}

func insertTemplates(ctx context.Context, tx *sql.Tx, items []*Template) error {
	now := time.Now().UTC()
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
			`INSERT INTO templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Name, item.Category, item.Style, item.Preview,
			storage.BoolToInt(item.IsFavorite), item.UsageCount, tags, item.ShopCategory,
			storage.FormatTime(item.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert template: %w", err)
		}
	}
	return nil
}

// Append inserts templates ahead of existing entries.
func (t *Templates) Append(ctx context.Context, items ...*Template) error {
	if len(items) == 0 {
		return nil
	}
	return t.db.InTx(ctx, func(tx *sql.Tx) error {
		return insertTemplates(ctx, tx, items)
	})
}

// GetByID fetches one template.
func (t *Templates) GetByID(ctx context.Context, id string) (*Template, error) {
	item, err := scanTemplate(t.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "library", "get template", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return item, nil
}

// UpdateByID applies fn to a template inside a transaction.
func (t *Templates) UpdateByID(ctx context.Context, id string, fn func(item *Template) error) (*Template, error) {
	var updated *Template
	err := t.db.InTx(ctx, func(tx *sql.Tx) error {
		item, err := scanTemplate(tx.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrNotFound, "library", "update template", id, nil)
		}
		if err != nil {
			return fmt.Errorf("load template: %w", err)
		}
		if err := fn(item); err != nil {
			return err
		}
		tags, err := encodeTags(item.Tags)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE templates
             SET name = ?, category = ?, style = ?, preview = ?, is_favorite = ?, usage_count = ?, tags_json = ?, shop_category = ?
             WHERE id = ?`,
			item.Name, item.Category, item.Style, item.Preview, storage.BoolToInt(item.IsFavorite),
			item.UsageCount, tags, item.ShopCategory, id,
		); err != nil {
			return fmt.Errorf("update template: %w", err)
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
func (t *Templates) ToggleFavorite(ctx context.Context, id string) (*Template, error) {
	return t.UpdateByID(ctx, id, func(item *Template) error {
		item.IsFavorite = !item.IsFavorite
		return nil
	})
}

// RemoveByID deletes a template.
func (t *Templates) RemoveByID(ctx context.Context, id string) error {
	res, err := t.db.Exec(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "library", "delete template", id, nil)
	}
	return nil
}

// ListAll returns templates newest first.
func (t *Templates) ListAll(ctx context.Context, filter TemplateFilter) ([]*Template, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.FavoritesOnly {
		clauses = append(clauses, "is_favorite = 1")
	}
	query := `SELECT ` + templateColumns + ` FROM templates`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []*Template
	for rows.Next() {
		item, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

//go:embed seed_templates.yaml
var seedTemplatesYAML []byte

type seedText struct {
	Name         string   `yaml:"name"`
	Category     string   `yaml:"category"`
	Tags         []string `yaml:"tags"`
	ShopCategory string   `yaml:"shop_category"`
}

type seedEntry struct {
	Style      string   `yaml:"style"`
	Preview    string   `yaml:"preview"`
	Favorite   bool     `yaml:"favorite"`
	UsageCount int      `yaml:"usage_count"`
	Zh         seedText `yaml:"zh"`
	En         seedText `yaml:"en"`
}

// SeedCatalog returns the built-in template entries for a locale.
func SeedCatalog(tag language.Tag) ([]*Template, error) {
	var entries []seedEntry
	if err := yaml.Unmarshal(seedTemplatesYAML, &entries); err != nil {
		return nil, fmt.Errorf("parse seed templates: %w", err)
	}
	base, _ := tag.Base()
	zhBase, _ := language.Chinese.Base()
	out := make([]*Template, 0, len(entries))
	for _, entry := range entries {
		text := entry.En
		if base == zhBase {
			text = entry.Zh
		}
		out = append(out, &Template{
			Name:         text.Name,
			Category:     text.Category,
			Style:        entry.Style,
			Preview:      entry.Preview,
			IsFavorite:   entry.Favorite,
			UsageCount:   entry.UsageCount,
			Tags:         append([]string(nil), text.Tags...),
			ShopCategory: text.ShopCategory,
		})
	}
	return out, nil
}

// Seed writes the built-in catalog once per database. It reports whether
// entries were written; later calls are no-ops even if the operator deleted
// seeded templates.
func (t *Templates) Seed(ctx context.Context, tag language.Tag) (bool, error) {
	if _, seeded, err := t.db.MetaValue(ctx, seededMetaKey); err != nil {
		return false, err
	} else if seeded {
		return false, nil
	}
	catalog, err := SeedCatalog(tag)
	if err != nil {
		return false, err
	}
	wrote := false
	err = t.db.InTx(ctx, func(tx *sql.Tx) error {
		var seeded int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM meta WHERE key = ?`, seededMetaKey).Scan(&seeded); err != nil {
			return fmt.Errorf("check seed flag: %w", err)
		}
		if seeded > 0 {
			return nil
		}
		if err := insertTemplates(ctx, tx, catalog); err != nil {
			return err
		}
		wrote = true
		return storage.SetMetaValue(ctx, tx, seededMetaKey, storage.FormatTime(time.Now()))
	})
	if err != nil {
		return false, err
	}
	return wrote, nil
}
