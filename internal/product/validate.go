package product

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"listingsmith/internal/imagedata"
	"listingsmith/internal/services"
)

var acceptedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

func validationError(operation, message string) error {
	return services.Wrap(services.ErrValidation, "product", operation, message, nil)
}

// ValidateSingle checks the fields a single-item run requires.
func ValidateSingle(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationError("validate", "product name is required")
	}
	if strings.TrimSpace(in.Image) == "" {
		return validationError("validate", "product image is required")
	}
	for _, link := range in.ReferenceLinks {
		if err := ValidateReferenceLink(link); err != nil {
			return err
		}
	}
	return nil
}

// FilterBatch keeps rows with both a name and an image, preserving order. It
// fails when no row survives. Dropped rows are not reported individually.
func FilterBatch(rows []BatchRow) ([]BatchRow, error) {
	valid := make([]BatchRow, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Image) == "" {
			continue
		}
		valid = append(valid, row)
	}
	if len(valid) == 0 {
		return nil, validationError("validate", "at least one row needs a name and an image")
	}
	return valid, nil
}

// CountNamed returns how many rows have a non-empty name.
func CountNamed(rows []BatchRow) int {
	count := 0
	for _, row := range rows {
		if strings.TrimSpace(row.Name) != "" {
			count++
		}
	}
	return count
}

// CheckImage validates raw upload bytes: JPEG or PNG, no larger than maxBytes.
func CheckImage(data []byte, maxBytes int64) (imagedata.Image, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return imagedata.Image{}, validationError("image", fmt.Sprintf("image exceeds %d MB", maxBytes/(1024*1024)))
	}
	img := imagedata.New(data)
	if _, ok := acceptedImageTypes[img.MIMEType]; !ok {
		return imagedata.Image{}, validationError("image", "only JPG or PNG images are accepted")
	}
	return img, nil
}

// CheckImageURI validates a product image given as a base64 data URI. The
// payload must pass CheckImage and CheckDimensions.
func CheckImageURI(uri string, maxBytes, maxPixels int64) error {
	img, err := imagedata.Parse(uri)
	if err != nil {
		return validationError("image", "product image must be a base64 data URI")
	}
	if _, err := CheckImage(img.Data, maxBytes); err != nil {
		return err
	}
	return CheckDimensions(img.Data, maxPixels)
}

// CheckDimensions reads only the image header and rejects images whose width
// times height exceeds maxPixels.
func CheckDimensions(data []byte, maxPixels int64) error {
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return validationError("image", "image header is unreadable")
	}
	if maxPixels > 0 && int64(header.Width)*int64(header.Height) > maxPixels {
		return validationError("image", fmt.Sprintf("image is %dx%d, over the %d pixel limit", header.Width, header.Height, maxPixels))
	}
	return nil
}

// LoadImageFile reads an image from disk and returns it as a data URI.
func LoadImageFile(path string, maxBytes int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", validationError("image", fmt.Sprintf("read %s: %v", filepath.Base(path), err))
	}
	if info.IsDir() {
		return "", validationError("image", fmt.Sprintf("%s is a directory", path))
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", validationError("image", fmt.Sprintf("image exceeds %d MB", maxBytes/(1024*1024)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	img, err := CheckImage(data, maxBytes)
	if err != nil {
		return "", err
	}
	return img.DataURI(), nil
}

// ValidateReferenceLink accepts links that start with "http".
func ValidateReferenceLink(link string) error {
	if !strings.HasPrefix(strings.TrimSpace(link), "http") {
		return validationError("reference link", fmt.Sprintf("%q is not a valid link", link))
	}
	return nil
}

// ValidateSpreadsheetName accepts .xlsx and .xls file names.
func ValidateSpreadsheetName(name string) error {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return nil
	}
	return validationError("spreadsheet", "expected an Excel file (.xlsx or .xls)")
}
