package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"listingsmith/internal/services"
	"listingsmith/internal/tasks"
)

// Record is the exported view of one result.
type Record struct {
	ProductName  string `json:"productName" parquet:"product_name"`
	ProductID    string `json:"productId" parquet:"product_id"`
	MainImage    string `json:"mainImage" parquet:"main_image"`
	Title        string `json:"title" parquet:"title"`
	SellingPoint string `json:"sellingPoint" parquet:"selling_point"`
	ProductLink  string `json:"productLink" parquet:"product_link"`
}

// Format selects the export encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatParquet}
}

// ParseFormat converts user input to a Format.
func ParseFormat(value string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(value)))
	for _, format := range Formats() {
		if format == normalized {
			return format, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "export", "parse format", fmt.Sprintf("unknown format %q", value), nil)
}

// Labels are the locale-specific strings written into exports.
type Labels struct {
	Header      []string
	Placeholder string
	FilePrefix  string
}

var (
	englishLabels = Labels{
		Header:      []string{"Product name", "Product ID", "Main image", "Title", "Selling points", "Product link"},
		Placeholder: "[replace with the real product link]",
		FilePrefix:  "listing-export",
	}
	chineseLabels = Labels{
		Header:      []string{"商品名称", "商品ID", "主图", "标题", "卖点", "商品链接"},
		Placeholder: "【请替换为真实商品链接】",
		FilePrefix:  "商品导出",
	}
	labelTags    = []language.Tag{language.English, language.Chinese}
	labelMatcher = language.NewMatcher(labelTags)
)

// LabelsFor returns the export strings best matching tag.
func LabelsFor(tag language.Tag) Labels {
	_, idx, _ := labelMatcher.Match(tag)
	if labelTags[idx] == language.Chinese {
		return chineseLabels
	}
	return englishLabels
}

// Records converts results in order. An empty selection is a validation error.
func Records(results []*tasks.Result, placeholder string) ([]Record, error) {
	if len(results) == 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "collect", "select at least one result to export", nil)
	}
	out := make([]Record, 0, len(results))
	for _, result := range results {
		out = append(out, Record{
			ProductName:  result.ProductName,
			ProductID:    result.ProductID,
			MainImage:    result.MainImage,
			Title:        result.Title,
			SellingPoint: result.SellingPoint,
			ProductLink:  placeholder,
		})
	}
	return out, nil
}
