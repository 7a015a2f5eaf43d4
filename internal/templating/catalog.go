package templating

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// Fallbacks are substituted for attributes that are missing.
type Fallbacks struct {
	Brand          string `yaml:"brand"`
	Material       string `yaml:"material"`
	TargetAudience string `yaml:"targetAudience"`
	Color          string `yaml:"color"`
	Type           string `yaml:"type"`
	Size           string `yaml:"size"`
}

// Labels are the localized strings the pipeline uses for naming and tagging.
type Labels struct {
	VariantTitle          string `yaml:"variant_title"`
	VariantSellingPoint   string `yaml:"variant_selling_point"`
	BatchTask             string `yaml:"batch_task"`
	ExcelTask             string `yaml:"excel_task"`
	ImageMaterialCategory string `yaml:"image_material_category"`
	TextMaterialCategory  string `yaml:"text_material_category"`
	AutoGeneratedTag      string `yaml:"auto_generated_tag"`
	TitleTag              string `yaml:"title_tag"`
	SellingPointsTag      string `yaml:"selling_points_tag"`
	TemplateCategory      string `yaml:"template_category"`
	TemplateShopCategory  string `yaml:"template_shop_category"`
}

// Catalog is the set of template strings for one locale.
type Catalog struct {
	Tag           language.Tag `yaml:"-"`
	Titles        []string     `yaml:"titles"`
	SellingPoints []string     `yaml:"selling_points"`
	Fallbacks     Fallbacks    `yaml:"fallbacks"`
	Labels        Labels       `yaml:"labels"`
}

var supportedTags = []language.Tag{language.English, language.Chinese}

var matcher = language.NewMatcher(supportedTags)

// LoadCatalog returns the catalog that best matches tag. Unsupported tags
// resolve to English.
func LoadCatalog(tag language.Tag) (Catalog, error) {
	_, idx, _ := matcher.Match(tag)
	chosen := supportedTags[idx]
	base, _ := chosen.Base()

	data, err := catalogFS.ReadFile("catalogs/" + base.String() + ".yaml")
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", base, err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", base, err)
	}
	if len(catalog.Titles) == 0 || len(catalog.SellingPoints) == 0 {
		return Catalog{}, fmt.Errorf("catalog %s has no templates", base)
	}
	catalog.Tag = chosen
	return catalog, nil
}

// VariantName labels an A/B variant result. n is 1 for the title variant and
// 2 for the selling-point variant.
func (l Labels) VariantName(name string, n int) string {
	label := l.VariantTitle
	if n == 2 {
		label = l.VariantSellingPoint
	}
	return strings.ReplaceAll(label, "{name}", name)
}

// BatchTaskName names a batch task of count named rows.
func (l Labels) BatchTaskName(count int) string {
	return strings.ReplaceAll(l.BatchTask, "{count}", strconv.Itoa(count))
}

// ExcelTaskName names a spreadsheet import task.
func (l Labels) ExcelTaskName(file string) string {
	return strings.ReplaceAll(l.ExcelTask, "{file}", file)
}
