package generation

import (
	"context"

	"listingsmith/internal/product"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/tasks"
)

// Request describes one generation submission. Exactly one of Single and
// Batch must be set.
type Request struct {
	Single     *product.Input
	Batch      []product.BatchRow
	Mode       tasks.Mode
	TemplateID string
}

// Copywriter produces styled social copy. It never fails; on upstream errors
// it returns templated fallback copy.
type Copywriter interface {
	Generate(ctx context.Context, p deepseek.Product, style deepseek.Style) deepseek.Copy
}

// plan is the validated work for one run.
type plan struct {
	kind       tasks.Kind
	name       string
	mode       tasks.Mode
	templateID string
	snapshot   product.Snapshot
	products   []product.Input
}

func (p plan) single() bool {
	return p.kind == tasks.KindSingle
}
