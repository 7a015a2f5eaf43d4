package export

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/text/language"

	"listingsmith/internal/fileutil"
	"listingsmith/internal/history"
	"listingsmith/internal/tasks"
	"listingsmith/internal/textutil"
)

// Exporter writes export files into a directory.
type Exporter struct {
	dir    string
	labels Labels
	now    func() time.Time
}

// NewExporter targets dir using the labels for tag.
func NewExporter(dir string, tag language.Tag) *Exporter {
	return &Exporter{dir: dir, labels: LabelsFor(tag), now: time.Now}
}

// Labels returns the locale strings used by the exporter.
func (e *Exporter) Labels() Labels {
	return e.labels
}

// FileName returns the dated file name for a format, e.g. listing-export_2024-05-01.csv.
func (e *Exporter) FileName(format Format) string {
	name := fmt.Sprintf("%s_%s.%s", e.labels.FilePrefix, e.now().Format("2006-01-02"), format)
	return textutil.SanitizeFileName(name)
}

// Write encodes results in format to w.
func (e *Exporter) Write(w io.Writer, results []*tasks.Result, format Format) error {
	records, err := Records(results, e.labels.Placeholder)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatCSV:
		return WriteCSV(w, records, e.labels.Header)
	case FormatParquet:
		return WriteParquet(w, records)
	default:
		_, err := ParseFormat(string(format))
		return err
	}
}

// Export writes results to a dated file in the export directory and returns its path.
func (e *Exporter) Export(results []*tasks.Result, format Format) (string, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return "", err
	}
	if _, err := Records(results, e.labels.Placeholder); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, e.FileName(format))
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return e.Write(w, results, format)
	}); err != nil {
		return "", fmt.Errorf("export %s: %w", format, err)
	}
	return path, nil
}

// ExportHistory writes the history log to a dated JSON file and returns its path.
func (e *Exporter) ExportHistory(entries []*history.Entry) (string, error) {
	name := textutil.SanitizeFileName(fmt.Sprintf("history_%s.json", e.now().Format("2006-01-02")))
	path := filepath.Join(e.dir, name)
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return WriteHistoryJSON(w, entries)
	}); err != nil {
		return "", fmt.Errorf("export history: %w", err)
	}
	return path, nil
}
