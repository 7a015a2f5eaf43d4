package product

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetOptions controls how image references in a sheet are resolved.
type SpreadsheetOptions struct {
	// ImageDir resolves relative image paths. Empty means the working directory.
	ImageDir      string
	MaxImageBytes int64
}

var columnAliases = map[string]string{
	"name":  "name",
	"商品名称":  "name",
	"名称":    "name",
	"brand": "brand",
	"品牌":    "brand",
	"type":  "type",
	"类型":    "type",
	"image": "image",
	"图片":    "image",
}

// ReadSpreadsheet parses rows from the first sheet of an Excel workbook. The
// first row is a header naming the name, brand, type and image columns.
// Image cells hold file paths that are loaded and validated like uploads.
func ReadSpreadsheet(r io.Reader, fileName string, opts SpreadsheetOptions) ([]BatchRow, error) {
	if err := ValidateSpreadsheetName(fileName); err != nil {
		return nil, err
	}
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, validationError("spreadsheet", fmt.Sprintf("cannot read %s: %v", filepath.Base(fileName), err))
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, validationError("spreadsheet", "workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, validationError("spreadsheet", "sheet is empty")
	}

	columns := headerColumns(rows[0])
	if _, ok := columns["name"]; !ok {
		return nil, validationError("spreadsheet", "header row has no name column")
	}

	out := make([]BatchRow, 0, len(rows)-1)
	for idx, cells := range rows[1:] {
		row := BatchRow{
			Name:  cell(cells, columns, "name"),
			Brand: cell(cells, columns, "brand"),
			Type:  cell(cells, columns, "type"),
		}
		if row.Name == "" && row.Brand == "" && row.Type == "" {
			continue
		}
		if imagePath := cell(cells, columns, "image"); imagePath != "" {
			if !filepath.IsAbs(imagePath) && opts.ImageDir != "" {
				imagePath = filepath.Join(opts.ImageDir, imagePath)
			}
			uri, err := LoadImageFile(imagePath, opts.MaxImageBytes)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", idx+2, err)
			}
			row.Image = uri
		}
		out = append(out, row)
	}
	return out, nil
}

func headerColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, title := range header {
		key, ok := columnAliases[strings.ToLower(strings.TrimSpace(title))]
		if !ok {
			continue
		}
		if _, seen := columns[key]; !seen {
			columns[key] = idx
		}
	}
	return columns
}

func cell(cells []string, columns map[string]int, key string) string {
	idx, ok := columns[key]
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}
