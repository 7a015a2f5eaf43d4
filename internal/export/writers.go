package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"listingsmith/internal/history"
)

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

var csvNewlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// WriteCSV writes a header line and one line per record. Every field is
// quoted, embedded quotes are doubled, and line breaks in the selling point
// become spaces so each record stays on one line.
func WriteCSV(w io.Writer, records []Record, header []string) error {
	if len(header) > 0 {
		if _, err := io.WriteString(w, strings.Join(header, ",")+"\n"); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, record := range records {
		fields := []string{
			record.ProductName,
			record.ProductID,
			record.MainImage,
			record.Title,
			csvNewlines.Replace(record.SellingPoint),
			record.ProductLink,
		}
		for i, field := range fields {
			fields[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := io.WriteString(w, strings.Join(fields, ",")+"\n"); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	return nil
}

// WriteParquet writes records as a single Parquet row group.
func WriteParquet(w io.Writer, records []Record) error {
	writer := parquet.NewGenericWriter[Record](w)
	if _, err := writer.Write(records); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteHistoryJSON writes history entries, newest first, as an indented JSON array.
func WriteHistoryJSON(w io.Writer, entries []*history.Entry) error {
	if entries == nil {
		entries = []*history.Entry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encode history export: %w", err)
	}
	return nil
}
