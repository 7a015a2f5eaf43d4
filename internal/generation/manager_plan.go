package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"listingsmith/internal/logging"
	"listingsmith/internal/product"
	"listingsmith/internal/services"
	"listingsmith/internal/tasks"
)

func invalidRequest(message string) error {
	return services.Wrap(services.ErrValidation, "generation", "validate", message, nil)
}

func normalizeMode(mode tasks.Mode) (tasks.Mode, error) {
	switch tasks.Mode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case "", tasks.ModeDefault:
		return tasks.ModeDefault, nil
	case tasks.ModeTemplate:
		return tasks.ModeTemplate, nil
	default:
		return "", invalidRequest(fmt.Sprintf("unknown mode %q", mode))
	}
}

// planRequest validates a new submission. Nothing is written.
func (m *Manager) planRequest(ctx context.Context, req Request) (plan, error) {
	if (req.Single == nil) == (len(req.Batch) == 0) {
		return plan{}, invalidRequest("provide either a single product or batch rows")
	}
	mode, err := normalizeMode(req.Mode)
	if err != nil {
		return plan{}, err
	}
	templateID := strings.TrimSpace(req.TemplateID)
	if mode == tasks.ModeTemplate {
		if templateID == "" {
			return plan{}, invalidRequest("template mode requires a template id")
		}
		if _, err := m.templates.GetByID(ctx, templateID); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return plan{}, invalidRequest(fmt.Sprintf("template %s does not exist", templateID))
			}
			return plan{}, err
		}
	}

	p := plan{mode: mode, templateID: templateID}
	if req.Single != nil {
		in := req.Single.Trimmed()
		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		p.kind = tasks.KindSingle
		p.name = in.Name
		p.snapshot = product.Snapshot{Single: &in}
	} else {
		p.kind = tasks.KindBatch
		p.name = m.engine.Labels().BatchTaskName(product.CountNamed(req.Batch))
		p.snapshot = product.Snapshot{Batch: append([]product.BatchRow(nil), req.Batch...)}
	}
	if p.products, err = m.materialize(p.kind, p.snapshot); err != nil {
		return plan{}, err
	}
	return p, nil
}

// planTask rebuilds the work for an existing task from its stored input.
func (m *Manager) planTask(task *tasks.Task) (plan, error) {
	p := plan{
		kind:       task.Kind,
		name:       task.Name,
		mode:       task.Mode,
		templateID: task.TemplateID,
		snapshot:   task.Input,
	}
	if p.mode == "" {
		p.mode = tasks.ModeDefault
	}
	products, err := m.materialize(task.Kind, task.Input)
	if err != nil {
		return plan{}, err
	}
	p.products = products
	return p, nil
}

// materialize validates a snapshot and expands it to the products to generate.
// Batch rows that lack a name or carry an unusable image are dropped.
func (m *Manager) materialize(kind tasks.Kind, snapshot product.Snapshot) ([]product.Input, error) {
	if kind == tasks.KindSingle {
		if snapshot.Single == nil {
			return nil, invalidRequest("task has no product input")
		}
		in := snapshot.Single.Trimmed()
		if err := product.ValidateSingle(in); err != nil {
			return nil, err
		}
		if err := m.checkImage(in.Image); err != nil {
			return nil, err
		}
		return []product.Input{in}, nil
	}
	rows, err := product.FilterBatch(snapshot.Batch)
	if err != nil {
		return nil, err
	}
	products := make([]product.Input, 0, len(rows))
	for _, row := range rows {
		if err := m.checkImage(row.Image); err != nil {
			m.logger.Debug("dropping batch row with unusable image",
				logging.String("product", row.Name),
				logging.Error(err),
			)
			continue
		}
		products = append(products, row.Input(fmt.Sprintf("batch-%d", len(products)), m.defaults))
	}
	if len(products) == 0 {
		return nil, invalidRequest("no batch row has a usable JPG or PNG image")
	}
	return products, nil
}

func (m *Manager) checkImage(uri string) error {
	return product.CheckImageURI(uri, m.cfg.Upload.MaxImageBytes, m.cfg.Upload.MaxImagePixels)
}
