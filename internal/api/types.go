package api

import (
	"listingsmith/internal/preflight"
	"listingsmith/internal/product"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/tasks"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a generation task in a transport-friendly format.
type Task struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Kind           string           `json:"kind"`
	Status         string           `json:"status"`
	Progress       int              `json:"progress"`
	TotalItems     int              `json:"totalItems"`
	CompletedItems int              `json:"completedItems"`
	Mode           string           `json:"mode"`
	TemplateID     string           `json:"templateId,omitempty"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	Input          product.Snapshot `json:"input"`
	CreatedAt      string           `json:"createdAt,omitempty"`
	UpdatedAt      string           `json:"updatedAt,omitempty"`
	CompletedAt    string           `json:"completedAt,omitempty"`
	Results        []tasks.Result   `json:"results,omitempty"`
}

// TaskListResponse wraps a collection of tasks.
type TaskListResponse struct {
	Items []Task `json:"items"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task Task `json:"task"`
}

// ResultResponse wraps a single result.
type ResultResponse struct {
	Result tasks.Result `json:"result"`
}

// Material is a material library entry.
type Material struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	IsFavorite bool     `json:"isFavorite"`
	CreatedAt  string   `json:"createdAt,omitempty"`
}

// Template is a template library entry.
type Template struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Style        string   `json:"style"`
	Preview      string   `json:"preview"`
	IsFavorite   bool     `json:"isFavorite"`
	UsageCount   int      `json:"usageCount"`
	Tags         []string `json:"tags"`
	ShopCategory string   `json:"shopCategory"`
	CreatedAt    string   `json:"createdAt,omitempty"`
}

// GenerateRequest is the body of POST /api/tasks. Exactly one of Single and
// Batch must be set.
type GenerateRequest struct {
	Single     *product.Input     `json:"single,omitempty"`
	Batch      []product.BatchRow `json:"batch,omitempty"`
	Mode       string             `json:"mode,omitempty"`
	TemplateID string             `json:"templateId,omitempty"`
}

// ResultPatchRequest is the body of PATCH /api/results/:id.
type ResultPatchRequest struct {
	Title        *string `json:"title"`
	SellingPoint *string `json:"sellingPoint"`
}

// CopyRequest asks for styled copy. With ResultID set the copy is generated
// from that result and written back to it; Product is ignored.
type CopyRequest struct {
	Product  deepseek.Product `json:"product"`
	Style    string           `json:"style"`
	ResultID string           `json:"resultId,omitempty"`
}

// CopyResponse carries generated copy and, when applied, the updated result.
type CopyResponse struct {
	Copy   deepseek.Copy `json:"copy"`
	Result *tasks.Result `json:"result,omitempty"`
}

// CaptionResponse is returned by /api/vision/analyze?caption=1.
type CaptionResponse struct {
	Caption string `json:"caption"`
}

// LogsResponse carries log lines and the byte offset to resume from.
type LogsResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// StatusResponse aggregates readiness for API consumers.
type StatusResponse struct {
	Ready      bool               `json:"ready"`
	Running    string             `json:"running,omitempty"`
	Checks     []preflight.Result `json:"checks"`
	TaskCounts map[string]int     `json:"taskCounts"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
