package generation

import (
	"context"
	"log/slog"
	"strings"

	"listingsmith/internal/compositor"
	"listingsmith/internal/history"
	"listingsmith/internal/library"
	"listingsmith/internal/product"
	"listingsmith/internal/services/deepseek"
	"listingsmith/internal/tasks"
	"listingsmith/internal/templating"
	"listingsmith/internal/textutil"
)

const (
	generatedTemplateStyle   = "minimal"
	generatedTemplatePreview = "from-gray-400 to-gray-600"
)

func attrsFor(in product.Input) templating.Attrs {
	return templating.Attrs{
		Name:           in.Name,
		Brand:          in.Brand,
		Type:           in.Type,
		Material:       in.Material,
		Color:          in.Color,
		Size:           in.Size,
		TargetAudience: in.TargetAudience,
	}
}

// synthesize renders the results of a run in input order. Single-item runs
// add a title variant and a selling-point variant after the base result.
func (m *Manager) synthesize(ctx context.Context, p plan) []*tasks.Result {
	results := make([]*tasks.Result, 0, len(p.products)*3)
	useTemplate := p.mode == tasks.ModeTemplate
	for _, item := range p.products {
		attrs := attrsFor(item)
		titleTemplate, sellingTemplate := m.engine.Pick(useTemplate)
		title := m.engine.RenderTitle(titleTemplate, attrs)
		sellingPoint := m.engine.RenderSellingPoints(sellingTemplate, attrs)

		mainImage := ""
		if item.Image != "" {
			mainImage = m.compositor.Annotate(ctx, item.Image, compositor.Summary{
				Name:     item.Name,
				Brand:    item.Brand,
				Type:     item.Type,
				Material: item.Material,
			})
		}

		base := newResult(item, mainImage, title, sellingPoint)
		results = append(results, base)
		if !p.single() {
			continue
		}

		labels := m.engine.Labels()
		titleVariant := newResult(item, mainImage, m.engine.RenderTitle(m.engine.RandomTitle(), attrs), sellingPoint)
		titleVariant.ProductName = labels.VariantName(item.Name, 1)
		titleVariant.Variant = tasks.VariantTitle

		sellingVariant := newResult(item, mainImage, title, m.engine.RenderSellingPoints(m.engine.RandomSellingPoint(), attrs))
		sellingVariant.ProductName = labels.VariantName(item.Name, 2)
		sellingVariant.Variant = tasks.VariantSellingPoint

		results = append(results, titleVariant, sellingVariant)
	}
	return results
}

func newResult(item product.Input, mainImage, title, sellingPoint string) *tasks.Result {
	return &tasks.Result{
		ProductID:      item.ID,
		ProductName:    item.Name,
		MainImage:      mainImage,
		Title:          title,
		SellingPoint:   sellingPoint,
		Status:         tasks.StatusCompleted,
		Variant:        tasks.VariantBase,
		Brand:          item.Brand,
		Category:       item.Type,
		Material:       item.Material,
		Color:          item.Color,
		Size:           item.Size,
		TargetAudience: item.TargetAudience,
	}
}

// materialsFor pairs every result with an image material and a text material.
func (m *Manager) materialsFor(results []*tasks.Result) []*library.Material {
	labels := m.engine.Labels()
	out := make([]*library.Material, 0, len(results)*2)
	for _, result := range results {
		out = append(out,
			&library.Material{
				Type:     library.MaterialImage,
				Content:  result.MainImage,
				Category: labels.ImageMaterialCategory,
				Tags:     []string{result.ProductName, labels.AutoGeneratedTag},
			},
			&library.Material{
				Type:     library.MaterialText,
				Content:  result.Title + "\n\n" + result.SellingPoint,
				Category: labels.TextMaterialCategory,
				Tags:     []string{result.ProductName, labels.TitleTag, labels.SellingPointsTag},
			},
		)
	}
	return out
}

// templateFor describes the library template added after a single-item run.
func (m *Manager) templateFor(item product.Input) *library.Template {
	labels := m.engine.Labels()
	brand := m.engine.BrandOrFallback(item.Brand)
	category := textutil.FirstNonEmpty(item.Type, labels.TemplateCategory)
	return &library.Template{
		Name:         strings.TrimSpace(brand + " " + item.Name),
		Category:     category,
		Style:        generatedTemplateStyle,
		Preview:      generatedTemplatePreview,
		UsageCount:   0,
		Tags:         []string{item.Name, brand, category},
		ShopCategory: labels.TemplateShopCategory,
	}
}

// finalize saves the library entries and the history snapshot of a completed
// run. Each write is independent; failures are logged and skipped.
func (m *Manager) finalize(ctx context.Context, logger *slog.Logger, task *tasks.Task, p plan, results []*tasks.Result) {
	if m.cfg.Generation.AutoSaveToLibrary && len(results) > 0 {
		if err := m.materials.Append(ctx, m.materialsFor(results)...); err != nil {
			m.warnPersistence(logger, "save materials", err)
		} else if err := m.tasks.MarkSaved(ctx, task.ID); err != nil {
			m.warnPersistence(logger, "mark results saved", err)
		} else {
			for _, result := range results {
				result.SavedToLibrary = true
			}
		}
	}

	if p.single() && len(p.products) == 1 {
		if err := m.templates.Append(ctx, m.templateFor(p.products[0])); err != nil {
			m.warnPersistence(logger, "save template", err)
		}
	}

	generated := make([]tasks.Result, 0, len(results))
	for _, result := range results {
		generated = append(generated, *result)
	}
	entry := &history.Entry{
		TaskID:             task.ID,
		ProductInfo:        p.snapshot,
		GeneratedResults:   generated,
		CopywritingResults: []deepseek.Copy{},
	}
	if err := m.history.Append(ctx, entry); err != nil {
		m.warnPersistence(logger, "append history", err)
	}
}
