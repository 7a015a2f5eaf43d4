package api

import (
	"time"

	"listingsmith/internal/library"
	"listingsmith/internal/preflight"
	"listingsmith/internal/tasks"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromTask converts a task record to its API representation.
func FromTask(task *tasks.Task) Task {
	if task == nil {
		return Task{}
	}
	dto := Task{
		ID:             task.ID,
		Name:           task.Name,
		Kind:           string(task.Kind),
		Status:         string(task.Status),
		Progress:       task.Progress,
		TotalItems:     task.TotalItems,
		CompletedItems: task.CompletedItems,
		Mode:           string(task.Mode),
		TemplateID:     task.TemplateID,
		ErrorMessage:   task.ErrorMessage,
		Input:          task.Input,
		CreatedAt:      formatTime(task.CreatedAt),
		UpdatedAt:      formatTime(task.UpdatedAt),
	}
	if task.CompletedAt != nil {
		dto.CompletedAt = formatTime(*task.CompletedAt)
	}
	return dto
}

// FromTasks converts task records into API DTOs.
func FromTasks(items []*tasks.Task) []Task {
	out := make([]Task, 0, len(items))
	for _, item := range items {
		out = append(out, FromTask(item))
	}
	return out
}

// WithResults attaches a task's results to its DTO.
func WithResults(dto Task, results []*tasks.Result) Task {
	dto.Results = make([]tasks.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			dto.Results = append(dto.Results, *r)
		}
	}
	return dto
}

// FromMaterial converts a material library entry.
func FromMaterial(m *library.Material) Material {
	if m == nil {
		return Material{}
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return Material{
		ID:         m.ID,
		Type:       string(m.Type),
		Content:    m.Content,
		Category:   m.Category,
		Tags:       tags,
		IsFavorite: m.IsFavorite,
		CreatedAt:  formatTime(m.CreatedAt),
	}
}

// FromMaterials converts a slice of material entries.
func FromMaterials(items []*library.Material) []Material {
	out := make([]Material, 0, len(items))
	for _, item := range items {
		out = append(out, FromMaterial(item))
	}
	return out
}

// FromTemplate converts a template library entry.
func FromTemplate(t *library.Template) Template {
	if t == nil {
		return Template{}
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return Template{
		ID:           t.ID,
		Name:         t.Name,
		Category:     t.Category,
		Style:        t.Style,
		Preview:      t.Preview,
		IsFavorite:   t.IsFavorite,
		UsageCount:   t.UsageCount,
		Tags:         tags,
		ShopCategory: t.ShopCategory,
		CreatedAt:    formatTime(t.CreatedAt),
	}
}

// FromTemplates converts a slice of template entries.
func FromTemplates(items []*library.Template) []Template {
	out := make([]Template, 0, len(items))
	for _, item := range items {
		out = append(out, FromTemplate(item))
	}
	return out
}

// FromStatus flattens a preflight status snapshot.
func FromStatus(status preflight.Status) StatusResponse {
	counts := make(map[string]int, len(status.TaskCounts))
	for s, n := range status.TaskCounts {
		counts[string(s)] = n
	}
	checks := status.Checks
	if checks == nil {
		checks = []preflight.Result{}
	}
	return StatusResponse{
		Ready:      status.Ready(),
		Running:    status.Running,
		Checks:     checks,
		TaskCounts: counts,
	}
}
