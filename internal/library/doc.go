// Package library holds the two operator-facing catalogs derived from
// generation runs: Materials (image and text snippets) and Templates (style
// descriptors). Both list newest first, support favorites and deletion, and
// persist in the shared SQLite database.
//
// Templates.Seed writes the built-in catalog from seed_templates.yaml the
// first time a database is opened.
package library
