package imagedata_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"listingsmith/internal/imagedata"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDataURIRoundTripKeepsBytes(t *testing.T) {
	raw := pngBytes(t)
	img := imagedata.New(raw)
	if img.MIMEType != "image/png" || img.Format() != "png" {
		t.Fatalf("unexpected mime %q format %q", img.MIMEType, img.Format())
	}
	uri := img.DataURI()
	parsed, err := imagedata.Parse(uri)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !bytes.Equal(parsed.Data, raw) || parsed.MIMEType != "image/png" {
		t.Fatalf("unexpected parsed image: %s", parsed.MIMEType)
	}
}

func TestParseRejectsNonDataURI(t *testing.T) {
	if _, err := imagedata.Parse("https://example.com/a.png"); !errors.Is(err, imagedata.ErrNotDataURI) {
		t.Fatalf("expected ErrNotDataURI, got %v", err)
	}
	if _, err := imagedata.Parse("data:image/png,plain"); !errors.Is(err, imagedata.ErrNotDataURI) {
		t.Fatalf("expected ErrNotDataURI for non-base64 uri, got %v", err)
	}
	if _, err := imagedata.Parse("data:image/png;base64,!!!"); err == nil {
		t.Fatal("expected decode error")
	}
}
