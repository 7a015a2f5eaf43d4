package product_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"listingsmith/internal/product"
	"listingsmith/internal/services"
	"listingsmith/internal/services/vision"
	"listingsmith/internal/testsupport"
)

func TestValidateSingle(t *testing.T) {
	cases := []struct {
		name    string
		input   product.Input
		wantErr string
	}{
		{"missing name", product.Input{Name: "  ", Image: "data:image/png;base64,AA=="}, "name is required"},
		{"missing image", product.Input{Name: "Trail Runner"}, "image is required"},
		{"bad link", product.Input{Name: "Trail Runner", Image: "data:image/png;base64,AA==", ReferenceLinks: []string{"ftp://x"}}, "not a valid link"},
		{"ok", product.Input{Name: "Trail Runner", Image: "data:image/png;base64,AA=="}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := product.ValidateSingle(tc.input)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestFilterBatchDropsIncompleteRows(t *testing.T) {
	rows := []product.BatchRow{
		{Name: "Tee", Image: "data:a"},
		{Name: "Cap"},
		{Name: "", Image: "data:c"},
		{Name: "Sock", Image: "data:d"},
	}
	valid, err := product.FilterBatch(rows)
	if err != nil {
		t.Fatalf("FilterBatch returned error: %v", err)
	}
	if len(valid) != 2 || valid[0].Name != "Tee" || valid[1].Name != "Sock" {
		t.Fatalf("unexpected rows: %+v", valid)
	}
	if product.CountNamed(rows) != 3 {
		t.Fatalf("expected 3 named rows, got %d", product.CountNamed(rows))
	}

	if _, err := product.FilterBatch([]product.BatchRow{{Name: "Cap"}}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBatchDefaultsPerLocale(t *testing.T) {
	en := product.BatchDefaults(language.English)
	if en.Material != "premium fabric" || en.Color != "classic" || en.Size != "one size" || en.TargetAudience != "general" {
		t.Fatalf("unexpected en defaults: %+v", en)
	}
	zh := product.BatchDefaults(language.MustParse("zh-CN"))
	if zh.Material != "优质面料" || zh.Size != "均码" {
		t.Fatalf("unexpected zh defaults: %+v", zh)
	}
	fr := product.BatchDefaults(language.French)
	if fr != en {
		t.Fatalf("expected english fallback, got %+v", fr)
	}

	in := product.BatchRow{Name: " Tee ", Brand: "Acme", Image: "data:x"}.Input("batch-0", en)
	if in.ID != "batch-0" || in.Name != "Tee" || in.Material != "premium fabric" || in.Image != "data:x" {
		t.Fatalf("unexpected expanded input: %+v", in)
	}
}

func TestLoadImageFile(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "shoe.png")
	testsupport.WritePNG(t, pngPath, 4, 4)

	uri, err := product.LoadImageFile(pngPath, 10*1024*1024)
	if err != nil {
		t.Fatalf("LoadImageFile returned error: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected data uri prefix: %.40s", uri)
	}

	if _, err := product.LoadImageFile(pngPath, 10); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected size validation error, got %v", err)
	}

	bigPath := filepath.Join(dir, "big.png")
	testsupport.WriteFile(t, bigPath, 2048)
	if _, err := product.LoadImageFile(bigPath, 1024); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected oversized file to fail, got %v", err)
	}

	gifPath := filepath.Join(dir, "anim.gif")
	if err := os.WriteFile(gifPath, []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := product.LoadImageFile(gifPath, 1024); err == nil || !strings.Contains(err.Error(), "JPG or PNG") {
		t.Fatalf("expected type validation error, got %v", err)
	}

	if _, err := product.LoadImageFile(filepath.Join(dir, "missing.png"), 1024); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing file, got %v", err)
	}
}

func TestCheckImageURI(t *testing.T) {
	valid := testsupport.PNGDataURI(t, 40, 30)
	if err := product.CheckImageURI(valid, 10*1024*1024, 40*30); err != nil {
		t.Fatalf("expected valid png to pass, got %v", err)
	}

	cases := []struct {
		name      string
		uri       string
		maxPixels int64
		want      string
	}{
		{"plain text payload", "data:text/plain;base64,aGVsbG8=", 1 << 20, "JPG or PNG"},
		{"not a data uri", "not an image at all", 1 << 20, "data URI"},
		{"too many pixels", valid, 40*30 - 1, "pixel limit"},
		{"truncated png", "data:image/png;base64,iVBORw0KGgo=", 1 << 20, "unreadable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := product.CheckImageURI(tc.uri, 10*1024*1024, tc.maxPixels)
			if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected validation error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestReferenceLinkAndSpreadsheetName(t *testing.T) {
	if err := product.ValidateReferenceLink("https://shop.example/item"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := product.ValidateReferenceLink("shop.example/item"); err == nil {
		t.Fatal("expected link without scheme to fail")
	}
	for _, name := range []string{"goods.xlsx", "GOODS.XLS"} {
		if err := product.ValidateSpreadsheetName(name); err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}
	if err := product.ValidateSpreadsheetName("goods.csv"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReadSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePNG(t, filepath.Join(dir, "tee.png"), 4, 4)

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"商品名称", "品牌", "类型", "图片"},
		{"Tee", "Acme", "shirt", "tee.png"},
		{"", "", "", ""},
		{"Cap", "Acme", "hat", ""},
	}
	for idx, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, idx+1)
		if err := book.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	parsed, err := product.ReadSpreadsheet(buf, "goods.xlsx", product.SpreadsheetOptions{ImageDir: dir, MaxImageBytes: 1 << 20})
	if err != nil {
		t.Fatalf("ReadSpreadsheet returned error: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(parsed), parsed)
	}
	if parsed[0].Name != "Tee" || parsed[0].Type != "shirt" || !strings.HasPrefix(parsed[0].Image, "data:image/png") {
		t.Fatalf("unexpected first row: %+v", parsed[0])
	}
	if parsed[1].Name != "Cap" || parsed[1].Image != "" {
		t.Fatalf("unexpected second row: %+v", parsed[1])
	}
}

func TestReadSpreadsheetRejectsLegacyBinary(t *testing.T) {
	_, err := product.ReadSpreadsheet(strings.NewReader("\xd0\xcf\x11\xe0 not a zip"), "old.xls", product.SpreadsheetOptions{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyAnalysis(t *testing.T) {
	analysis := vision.Analysis{
		Description:    "A lightweight trail running shoe with breathable mesh upper",
		SellingPoints:  []string{"breathable", "grippy"},
		Category:       "shoes",
		Style:          "sporty",
		TargetAudience: "runners",
	}
	merged := product.ApplyAnalysis(product.Input{Material: "mesh"}, analysis)
	if merged.Name != "A lightweight trail running sh" {
		t.Fatalf("unexpected derived name %q", merged.Name)
	}
	if merged.Type != "shoes" || merged.Material != "mesh" || merged.TargetAudience != "runners" {
		t.Fatalf("unexpected merge: %+v", merged)
	}
	if merged.SellingPoints != "breathable\ngrippy" {
		t.Fatalf("unexpected selling points %q", merged.SellingPoints)
	}

	kept := product.ApplyAnalysis(product.Input{Name: "Trail Runner"}, analysis)
	if kept.Name != "Trail Runner" || kept.Material != "sporty" {
		t.Fatalf("unexpected merge for named input: %+v", kept)
	}
}

func TestInputFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product.json")
	in := product.Input{Name: "Trail Runner", Brand: "Acme", ReferenceLinks: []string{"https://a"}}
	if err := product.SaveInputFile(path, in); err != nil {
		t.Fatalf("SaveInputFile: %v", err)
	}
	got, err := product.LoadInputFile(path)
	if err != nil {
		t.Fatalf("LoadInputFile: %v", err)
	}
	if got.Name != in.Name || got.Brand != in.Brand || len(got.ReferenceLinks) != 1 {
		t.Fatalf("unexpected loaded input: %+v", got)
	}
}
