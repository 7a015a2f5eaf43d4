// Package product models operator input for a generation run and validates it.
//
// A run is either a single Input (name and image required, reference links
// must start with "http") or a list of BatchRow values, which are filtered to
// rows that carry both a name and an image and then expanded with
// locale-specific Defaults. Images are JPEG or PNG no larger than the
// configured limit and travel as base64 data URIs.
//
// ReadSpreadsheet imports batch rows from the first sheet of an Excel
// workbook, and ApplyAnalysis merges image-analysis suggestions into an Input.
package product
