package testsupport

import (
	"context"
	"testing"

	"listingsmith/internal/config"
	"listingsmith/internal/storage"
	"listingsmith/internal/tasks"
)

// MustOpenStore opens the database for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.DB {
	t.Helper()

	db, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// NewTask appends a task with the given status and item count.
func NewTask(t testing.TB, store *tasks.Store, name string, status tasks.Status, totalItems int) *tasks.Task {
	t.Helper()

	task, err := store.Append(context.Background(), &tasks.Task{
		Name:       name,
		Kind:       tasks.KindBatch,
		Status:     status,
		TotalItems: totalItems,
	})
	if err != nil {
		t.Fatalf("store.Append: %v", err)
	}
	return task
}
