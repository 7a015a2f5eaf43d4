package preflight

import (
	"context"
	"fmt"

	"listingsmith/internal/config"
	"listingsmith/internal/tasks"
)

// Status is the combined readiness and workload snapshot shown by
// "listingsmith status" and /api/status.
type Status struct {
	Checks     []Result             `json:"checks"`
	TaskCounts map[tasks.Status]int `json:"taskCounts"`
	Running    string               `json:"running,omitempty"`
}

// Ready reports whether every check passed.
func (s Status) Ready() bool {
	return len(Failed(s.Checks)) == 0
}

// Collect runs every check and counts tasks per status. Statuses with no
// tasks are reported as zero.
func Collect(ctx context.Context, cfg *config.Config, store *tasks.Store) (Status, error) {
	status := Status{Checks: RunAll(ctx, cfg), TaskCounts: make(map[tasks.Status]int)}
	for _, s := range tasks.AllStatuses() {
		status.TaskCounts[s] = 0
	}
	if store == nil {
		return status, nil
	}
	counts, err := store.Counts(ctx)
	if err != nil {
		return status, fmt.Errorf("count tasks: %w", err)
	}
	for s, n := range counts {
		status.TaskCounts[s] = n
	}
	return status, nil
}
