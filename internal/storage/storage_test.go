package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"listingsmith/internal/storage"
)

func openTemp(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.OpenPath(filepath.Join(t.TempDir(), "data", "listingsmith.db"))
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenCreatesSchema(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	for _, table := range []string{"tasks", "results", "materials", "templates", "history", "meta"} {
		var count int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&count); err != nil {
			t.Fatalf("query table %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listingsmith.db")
	db, err := storage.OpenPath(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = db.Close()

	db, err = storage.OpenPath(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = db.Close()
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listingsmith.db")
	db, err := storage.OpenPath(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec(context.Background(), "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := storage.OpenPath(path); !errors.Is(err, storage.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.InTx(ctx, func(tx *sql.Tx) error {
		if err := storage.SetMetaValue(ctx, tx, "k", "v"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok, err := db.MetaValue(ctx, "k"); err != nil || ok {
		t.Fatalf("expected key to be rolled back, ok=%v err=%v", ok, err)
	}

	if err := db.InTx(ctx, func(tx *sql.Tx) error {
		return storage.SetMetaValue(ctx, tx, "k", "v2")
	}); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	value, ok, err := db.MetaValue(ctx, "k")
	if err != nil || !ok || value != "v2" {
		t.Fatalf("unexpected meta value %q ok=%v err=%v", value, ok, err)
	}
}

func TestTimeHelpers(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 0, 500, time.FixedZone("x", 3600))
	parsed, err := storage.ParseTime(storage.FormatTime(now))
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !parsed.Equal(now) {
		t.Fatalf("expected %v, got %v", now, parsed)
	}
	if storage.NullableTime(nil) != nil {
		t.Fatal("expected nil for unset time")
	}
	if got := storage.Placeholders(3); got != "?,?,?" {
		t.Fatalf("unexpected placeholders %q", got)
	}
}

func TestIsBusy(t *testing.T) {
	if storage.IsBusy(nil) {
		t.Fatal("nil is not busy")
	}
	if !storage.IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy message to match")
	}
	if storage.IsBusy(errors.New("no such table")) {
		t.Fatal("unexpected busy match")
	}
}
