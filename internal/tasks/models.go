package tasks

import (
	"strings"
	"time"

	"listingsmith/internal/product"
)

// Status represents the lifecycle of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// CancelledMessage is the error message recorded when an operator cancels a running task.
const CancelledMessage = "cancelled by operator"

// InterruptedMessage is recorded for tasks left processing by a process that exited.
const InterruptedMessage = "interrupted"

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// AllStatuses returns every task status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a user-supplied string to a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Kind identifies how a task's input was supplied.
type Kind string

const (
	KindSingle Kind = "single"
	KindBatch  Kind = "batch"
	KindExcel  Kind = "excel"
)

// Mode selects how template strings are chosen.
type Mode string

const (
	ModeDefault  Mode = "default"
	ModeTemplate Mode = "template"
)

// Task is one generation run.
type Task struct {
	ID             string
	Name           string
	Kind           Kind
	Status         Status
	Progress       int
	TotalItems     int
	CompletedItems int
	Mode           Mode
	TemplateID     string
	Input          product.Snapshot
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// IsTerminal reports whether the task has stopped running.
func (t *Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// Variant distinguishes the base result from its A/B alternates.
type Variant int

const (
	VariantBase Variant = iota
	VariantTitle
	VariantSellingPoint
)

// Result is one generated creative for one product.
type Result struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"taskId"`
	Position       int       `json:"position"`
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	MainImage      string    `json:"mainImage"`
	Title          string    `json:"title"`
	SellingPoint   string    `json:"sellingPoint"`
	Selected       bool      `json:"selected"`
	SavedToLibrary bool      `json:"savedToLibrary"`
	Status         Status    `json:"status"`
	Variant        Variant   `json:"variant"`
	Brand          string    `json:"brand"`
	Category       string    `json:"category"`
	Material       string    `json:"material"`
	Color          string    `json:"color"`
	Size           string    `json:"size"`
	TargetAudience string    `json:"targetAudience"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ResultPatch carries the editable fields of a result. Nil fields are left untouched.
type ResultPatch struct {
	Title        *string
	SellingPoint *string
}

// Empty reports whether the patch changes nothing.
func (p ResultPatch) Empty() bool {
	return p.Title == nil && p.SellingPoint == nil
}
