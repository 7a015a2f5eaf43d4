package templating

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"listingsmith/internal/textutil"
)

// RandomSource picks template indices. Tests inject deterministic sources.
type RandomSource interface {
	Intn(n int) int
}

type pcgSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (p *pcgSource) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// NewRandomSource returns a PCG-backed source seeded from the clock.
func NewRandomSource() RandomSource {
	seed := uint64(time.Now().UnixNano())
	return &pcgSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Attrs are the product attributes available to placeholders.
type Attrs struct {
	Name           string
	Brand          string
	Type           string
	Material       string
	Color          string
	Size           string
	TargetAudience string
}

// Engine renders titles and selling points from a locale catalog.
type Engine struct {
	catalog        Catalog
	rng            RandomSource
	maxTitleLength int
}

// NewEngine builds an engine. A nil rng uses NewRandomSource; a
// non-positive maxTitleLength disables truncation.
func NewEngine(catalog Catalog, maxTitleLength int, rng RandomSource) *Engine {
	if rng == nil {
		rng = NewRandomSource()
	}
	return &Engine{catalog: catalog, rng: rng, maxTitleLength: maxTitleLength}
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Labels returns the localized pipeline labels.
func (e *Engine) Labels() Labels {
	return e.catalog.Labels
}

// BrandOrFallback returns brand, or the localized brand fallback when blank.
func (e *Engine) BrandOrFallback(brand string) string {
	return or(brand, e.catalog.Fallbacks.Brand)
}

func or(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func (e *Engine) replacer(attrs Attrs) *strings.Replacer {
	fb := e.catalog.Fallbacks
	return strings.NewReplacer(
		"{brand}", or(attrs.Brand, fb.Brand),
		"{name}", strings.TrimSpace(attrs.Name),
		"{type}", or(attrs.Type, fb.Type),
		"{material}", or(attrs.Material, fb.Material),
		"{color}", or(attrs.Color, fb.Color),
		"{size}", or(attrs.Size, fb.Size),
		"{targetAudience}", or(attrs.TargetAudience, fb.TargetAudience),
	)
}

// RenderTitle substitutes every placeholder, collapses whitespace, and
// truncates to the configured length in characters.
func (e *Engine) RenderTitle(template string, attrs Attrs) string {
	title := textutil.CollapseWhitespace(e.replacer(attrs).Replace(template))
	title = norm.NFC.String(title)
	if e.maxTitleLength > 0 {
		title = textutil.TruncateRunes(title, e.maxTitleLength)
	}
	return title
}

// RenderSellingPoints substitutes every placeholder. Line breaks are kept.
func (e *Engine) RenderSellingPoints(template string, attrs Attrs) string {
	return e.replacer(attrs).Replace(template)
}

// Pick chooses a title and selling-point template. With useTemplate set the
// first entry of each list is used; otherwise each is drawn independently.
func (e *Engine) Pick(useTemplate bool) (title, sellingPoint string) {
	if useTemplate {
		return e.catalog.Titles[0], e.catalog.SellingPoints[0]
	}
	return e.RandomTitle(), e.RandomSellingPoint()
}

// RandomTitle draws a title template.
func (e *Engine) RandomTitle() string {
	return e.catalog.Titles[e.rng.Intn(len(e.catalog.Titles))]
}

// RandomSellingPoint draws a selling-point template.
func (e *Engine) RandomSellingPoint() string {
	return e.catalog.SellingPoints[e.rng.Intn(len(e.catalog.SellingPoints))]
}
