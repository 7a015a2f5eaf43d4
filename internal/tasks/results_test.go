package tasks_test

import (
	"context"
	"errors"
	"testing"

	"listingsmith/internal/services"
	"listingsmith/internal/tasks"
	"listingsmith/internal/testsupport"
)

func seedResults(t *testing.T, store *tasks.Store, taskID string, count int) []*tasks.Result {
	t.Helper()
	results := make([]*tasks.Result, 0, count)
	for i := 0; i < count; i++ {
		results = append(results, &tasks.Result{
			ProductID:    "p-1",
			ProductName:  "Trail Runner",
			Title:        "title",
			SellingPoint: "points",
			Variant:      tasks.Variant(i),
		})
	}
	if err := store.ReplaceResults(context.Background(), taskID, results); err != nil {
		t.Fatalf("ReplaceResults failed: %v", err)
	}
	return results
}

func TestSelectResultIsExclusive(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	task := testsupport.NewTask(t, store, "run", tasks.StatusCompleted, 1)
	other := testsupport.NewTask(t, store, "other", tasks.StatusCompleted, 1)
	results := seedResults(t, store, task.ID, 3)
	otherResults := seedResults(t, store, other.ID, 1)

	if _, err := store.SelectResult(ctx, otherResults[0].ID); err != nil {
		t.Fatalf("SelectResult failed: %v", err)
	}
	if _, err := store.SelectResult(ctx, results[0].ID); err != nil {
		t.Fatalf("SelectResult failed: %v", err)
	}
	selected, err := store.SelectResult(ctx, results[2].ID)
	if err != nil {
		t.Fatalf("SelectResult failed: %v", err)
	}
	if !selected.Selected {
		t.Fatal("expected returned result to be selected")
	}

	listed, err := store.ListResults(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	count := 0
	for _, r := range listed {
		if r.Selected {
			count++
			if r.ID != results[2].ID {
				t.Fatalf("wrong result selected: %s", r.ID)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one selected result, got %d", count)
	}

	all, err := store.ListSelected(ctx, "")
	if err != nil {
		t.Fatalf("ListSelected failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("selection is per task; expected 2 selected across tasks, got %d", len(all))
	}

	if _, err := store.SelectResult(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateResultShallowMerge(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	task := testsupport.NewTask(t, store, "run", tasks.StatusCompleted, 1)
	results := seedResults(t, store, task.ID, 1)

	title := "Edited title"
	updated, err := store.UpdateResult(ctx, results[0].ID, tasks.ResultPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateResult failed: %v", err)
	}
	if updated.Title != "Edited title" || updated.SellingPoint != "points" {
		t.Fatalf("unexpected merge: %+v", updated)
	}
	fetched, err := store.GetResult(ctx, results[0].ID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if fetched.Title != "Edited title" {
		t.Fatalf("edit not persisted: %q", fetched.Title)
	}
}

func TestReplaceResultsAndCascade(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	task := testsupport.NewTask(t, store, "run", tasks.StatusCompleted, 1)
	seedResults(t, store, task.ID, 3)
	replacement := seedResults(t, store, task.ID, 1)

	listed, err := store.ListResults(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != replacement[0].ID || listed[0].Status != tasks.StatusCompleted {
		t.Fatalf("unexpected results after replace: %+v", listed)
	}

	if err := store.MarkSaved(ctx, task.ID); err != nil {
		t.Fatalf("MarkSaved failed: %v", err)
	}
	saved, _ := store.GetResult(ctx, replacement[0].ID)
	if !saved.SavedToLibrary {
		t.Fatal("expected result to be marked saved")
	}

	if err := store.RemoveByID(ctx, task.ID); err != nil {
		t.Fatalf("RemoveByID failed: %v", err)
	}
	if _, err := store.GetResult(ctx, replacement[0].ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected results to be deleted with the task, got %v", err)
	}
}
