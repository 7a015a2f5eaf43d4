package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"listingsmith/internal/fileutil"
	"listingsmith/internal/imagedata"
	"listingsmith/internal/product"
	"listingsmith/internal/tasks"
	"listingsmith/internal/textutil"
)

// resolveImage turns a file path into a data URI. Values that already are
// data URIs pass through; relative paths resolve against baseDir.
func resolveImage(value, baseDir string, maxBytes int64) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "data:") {
		return value, nil
	}
	if !filepath.IsAbs(value) && baseDir != "" {
		value = filepath.Join(baseDir, value)
	}
	return product.LoadImageFile(value, maxBytes)
}

func resolveInputImages(in product.Input, baseDir string, maxBytes int64) (product.Input, error) {
	image, err := resolveImage(in.Image, baseDir, maxBytes)
	if err != nil {
		return product.Input{}, err
	}
	in.Image = image
	refs := make([]string, 0, len(in.ReferenceImages))
	for _, ref := range in.ReferenceImages {
		uri, err := resolveImage(ref, baseDir, maxBytes)
		if err != nil {
			return product.Input{}, err
		}
		if uri != "" {
			refs = append(refs, uri)
		}
	}
	in.ReferenceImages = refs
	return in, nil
}

// batchFileRow accepts YAML or JSON rows; JSON is valid YAML.
type batchFileRow struct {
	Name  string `yaml:"name"`
	Brand string `yaml:"brand"`
	Type  string `yaml:"type"`
	Image string `yaml:"image"`
}

// loadBatchFile reads batch rows and loads each row's image. Rows with a
// missing image keep an empty image so validation can drop them.
func loadBatchFile(path string, maxBytes int64) ([]product.BatchRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var parsed []batchFileRow
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", filepath.Base(path), err)
	}
	baseDir := filepath.Dir(path)
	rows := make([]product.BatchRow, 0, len(parsed))
	for _, entry := range parsed {
		image, err := resolveImage(entry.Image, baseDir, maxBytes)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", entry.Name, err)
		}
		rows = append(rows, product.BatchRow{
			Name:  entry.Name,
			Brand: entry.Brand,
			Type:  entry.Type,
			Image: image,
		})
	}
	return rows, nil
}

// saveResultImages writes each result's composited image into dir and
// returns the written paths.
func saveResultImages(dir string, results []*tasks.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	paths := make([]string, 0, len(results))
	for _, r := range results {
		img, err := imagedata.Parse(r.MainImage)
		if err != nil {
			return paths, fmt.Errorf("decode image for result %s: %w", r.ID, err)
		}
		name := textutil.SanitizeFileName(fmt.Sprintf("%s_%d_%d.%s", r.ProductName, r.Position, r.Variant, img.Format()))
		path := filepath.Join(dir, name)
		if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
			_, werr := w.Write(img.Data)
			return werr
		}); err != nil {
			return paths, fmt.Errorf("write %s: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
