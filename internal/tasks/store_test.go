package tasks_test

import (
	"context"
	"errors"
	"testing"

	"listingsmith/internal/product"
	"listingsmith/internal/services"
	"listingsmith/internal/tasks"
	"listingsmith/internal/testsupport"
)

func newStore(t *testing.T) *tasks.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return tasks.NewStore(testsupport.MustOpenStore(t, cfg))
}

func TestAppendAndGetKeepsInputSnapshot(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	task, err := store.Append(ctx, &tasks.Task{
		Name:       "Trail Runner",
		Kind:       tasks.KindSingle,
		Status:     tasks.StatusProcessing,
		TotalItems: 1,
		Input:      product.Snapshot{Single: &product.Input{Name: "Trail Runner", Brand: "Acme"}},
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if task.ID == "" || task.Mode != tasks.ModeDefault || task.CreatedAt.IsZero() {
		t.Fatalf("expected defaults to be assigned: %+v", task)
	}

	fetched, err := store.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Input.Single == nil || fetched.Input.Single.Brand != "Acme" {
		t.Fatalf("unexpected input snapshot: %+v", fetched.Input)
	}
	if fetched.CompletedAt != nil {
		t.Fatal("completedAt must be unset before completion")
	}
}

func TestGetByIDUnknown(t *testing.T) {
	store := newStore(t)
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.RemoveByID(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestListAllNewestFirstAndFiltered(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := testsupport.NewTask(t, store, "first", tasks.StatusPending, 1)
	second := testsupport.NewTask(t, store, "second", tasks.StatusFailed, 1)
	third := testsupport.NewTask(t, store, "third", tasks.StatusPending, 1)

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID || all[1].ID != second.ID || all[2].ID != first.ID {
		t.Fatalf("unexpected order: %v", names(all))
	}

	pending, err := store.ListAll(ctx, tasks.StatusPending)
	if err != nil {
		t.Fatalf("ListAll filtered failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending tasks, got %v", names(pending))
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[tasks.StatusPending] != 2 || counts[tasks.StatusFailed] != 1 || counts[tasks.StatusCompleted] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func names(list []*tasks.Task) []string {
	out := make([]string, 0, len(list))
	for _, task := range list {
		out = append(out, task.Name)
	}
	return out
}

func TestUpdateByIDAbortsOnError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	task := testsupport.NewTask(t, store, "keep", tasks.StatusPending, 2)

	boom := errors.New("boom")
	if _, err := store.UpdateByID(ctx, task.ID, func(task *tasks.Task) error {
		task.Name = "changed"
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	fetched, _ := store.GetByID(ctx, task.ID)
	if fetched.Name != "keep" {
		t.Fatalf("expected name to be unchanged, got %q", fetched.Name)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	task := testsupport.NewTask(t, store, "run", tasks.StatusPending, 5)

	if _, err := store.Retry(ctx, task.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("retry on pending should conflict, got %v", err)
	}

	started, err := store.Start(ctx, task.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if started.Status != tasks.StatusProcessing {
		t.Fatalf("expected processing, got %s", started.Status)
	}

	// Scenario: five products driven through fifteen unit-steps.
	var last *tasks.Task
	for step := 1; step <= 15; step++ {
		progress := (100*step + 7) / 15
		last, err = store.UpdateProgress(ctx, task.ID, progress, step/3)
		if err != nil {
			t.Fatalf("UpdateProgress step %d failed: %v", step, err)
		}
	}
	if last.Progress != 99 || last.CompletedItems != 5 {
		t.Fatalf("expected progress held below 100 while processing, got %d/%d", last.Progress, last.CompletedItems)
	}

	regress, err := store.UpdateProgress(ctx, task.ID, 10, 1)
	if err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if regress.Progress != 99 || regress.CompletedItems != 5 {
		t.Fatalf("progress must not move backwards: %+v", regress)
	}

	completed, err := store.Complete(ctx, task.ID)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != tasks.StatusCompleted || completed.Progress != 100 || completed.CompletedItems != 5 || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed task: %+v", completed)
	}

	if _, err := store.Cancel(ctx, task.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("cancel on completed should conflict, got %v", err)
	}
	if _, err := store.Retry(ctx, task.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("retry on completed should conflict, got %v", err)
	}
}

func TestCancelRetryResetsProgress(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	task := testsupport.NewTask(t, store, "run", tasks.StatusProcessing, 2)

	if _, err := store.UpdateProgress(ctx, task.ID, 50, 1); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	cancelled, err := store.Cancel(ctx, task.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != tasks.StatusFailed || cancelled.ErrorMessage != tasks.CancelledMessage {
		t.Fatalf("unexpected cancelled task: %+v", cancelled)
	}
	if _, err := store.UpdateProgress(ctx, task.ID, 60, 1); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("progress on failed task should conflict, got %v", err)
	}

	retried, err := store.Retry(ctx, task.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if retried.Status != tasks.StatusProcessing || retried.Progress != 0 || retried.CompletedItems != 0 || retried.ErrorMessage != "" {
		t.Fatalf("unexpected retried task: %+v", retried)
	}
}

func TestMarkInterrupted(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	stuck := testsupport.NewTask(t, store, "stuck", tasks.StatusProcessing, 1)
	pending := testsupport.NewTask(t, store, "waiting", tasks.StatusPending, 1)

	affected, err := store.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("MarkInterrupted failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 task, got %d", affected)
	}
	got, _ := store.GetByID(ctx, stuck.ID)
	if got.Status != tasks.StatusFailed || got.ErrorMessage != tasks.InterruptedMessage {
		t.Fatalf("unexpected interrupted task: %+v", got)
	}
	other, _ := store.GetByID(ctx, pending.ID)
	if other.Status != tasks.StatusPending {
		t.Fatalf("pending task should be untouched, got %s", other.Status)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := tasks.ParseStatus(" Failed "); !ok || status != tasks.StatusFailed {
		t.Fatalf("unexpected parse result %q %v", status, ok)
	}
	if _, ok := tasks.ParseStatus("done"); ok {
		t.Fatal("expected unknown status to fail")
	}
}
