package product

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// Input is the operator-entered description of one product.
type Input struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	Brand           string   `json:"brand,omitempty"`
	Type            string   `json:"type,omitempty"`
	Material        string   `json:"material,omitempty"`
	Color           string   `json:"color,omitempty"`
	Size            string   `json:"size,omitempty"`
	TargetAudience  string   `json:"targetAudience,omitempty"`
	SellingPoints   string   `json:"sellingPoints,omitempty"`
	Image           string   `json:"image,omitempty"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
	ReferenceLinks  []string `json:"referenceLinks,omitempty"`
}

// BatchRow is one line of a batch or spreadsheet import. Rows carry fewer
// fields than a single input; the rest come from Defaults.
type BatchRow struct {
	Name  string `json:"name"`
	Brand string `json:"brand,omitempty"`
	Type  string `json:"type,omitempty"`
	Image string `json:"image,omitempty"`
}

// Snapshot is the input a task was created from. Exactly one of Single and
// Batch is set.
type Snapshot struct {
	Single *Input     `json:"single,omitempty"`
	Batch  []BatchRow `json:"batch,omitempty"`
	Source string     `json:"source,omitempty"`
}

// Defaults fills the attributes batch rows do not carry.
type Defaults struct {
	Material       string
	Color          string
	Size           string
	TargetAudience string
}

var batchDefaults = map[language.Base]Defaults{
	mustBase("en"): {Material: "premium fabric", Color: "classic", Size: "one size", TargetAudience: "general"},
	mustBase("zh"): {Material: "优质面料", Color: "经典色", Size: "均码", TargetAudience: "通用"},
}

func mustBase(tag string) language.Base {
	base, _ := language.MustParse(tag).Base()
	return base
}

// BatchDefaults returns the defaults applied to batch rows for the given locale.
// Unknown locales fall back to English.
func BatchDefaults(tag language.Tag) Defaults {
	base, _ := tag.Base()
	if defaults, ok := batchDefaults[base]; ok {
		return defaults
	}
	return batchDefaults[mustBase("en")]
}

// Input expands the row into a full product input using defaults.
func (r BatchRow) Input(id string, defaults Defaults) Input {
	return Input{
		ID:             id,
		Name:           strings.TrimSpace(r.Name),
		Brand:          strings.TrimSpace(r.Brand),
		Type:           strings.TrimSpace(r.Type),
		Material:       defaults.Material,
		Color:          defaults.Color,
		Size:           defaults.Size,
		TargetAudience: defaults.TargetAudience,
		Image:          r.Image,
	}
}

// Trimmed returns a copy with surrounding whitespace removed from every text field.
func (in Input) Trimmed() Input {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Type = strings.TrimSpace(in.Type)
	in.Material = strings.TrimSpace(in.Material)
	in.Color = strings.TrimSpace(in.Color)
	in.Size = strings.TrimSpace(in.Size)
	in.TargetAudience = strings.TrimSpace(in.TargetAudience)
	in.SellingPoints = strings.TrimSpace(in.SellingPoints)
	return in
}

// LoadInputFile reads a product input stored as JSON.
func LoadInputFile(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("read product file: %w", err)
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("parse product file %s: %w", filepath.Base(path), err)
	}
	return in, nil
}

// SaveInputFile writes a product input as indented JSON.
func SaveInputFile(path string, in Input) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write product file: %w", err)
	}
	return nil
}
