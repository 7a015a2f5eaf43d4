// Package imagedata converts between raw image bytes and self-contained
// base64 data URIs, the form in which product images are stored, composited
// and exported.
package imagedata

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Image is a decoded data URI payload.
type Image struct {
	MIMEType string
	Data     []byte
}

// ErrNotDataURI is returned when a value is not a base64 data URI.
var ErrNotDataURI = errors.New("not a base64 data uri")

// New wraps raw bytes, sniffing the MIME type from content.
func New(data []byte) Image {
	return Image{MIMEType: DetectMIME(data), Data: data}
}

// DetectMIME sniffs the content type of data, dropping any parameters.
func DetectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.TrimSpace(mime)
}

// Format returns the subtype of the MIME type ("png", "jpeg", ...).
func (img Image) Format() string {
	if _, sub, ok := strings.Cut(img.MIMEType, "/"); ok {
		return sub
	}
	return img.MIMEType
}

// DataURI encodes the image as data:<mime>;base64,<payload>.
func (img Image) DataURI() string {
	mime := img.MIMEType
	if mime == "" {
		mime = DetectMIME(img.Data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Parse decodes a base64 data URI.
func Parse(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrNotDataURI
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return Image{}, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data uri: %w", err)
	}
	if mime == "" {
		mime = DetectMIME(data)
	}
	return Image{MIMEType: mime, Data: data}, nil
}
