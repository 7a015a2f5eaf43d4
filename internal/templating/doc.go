// Package templating fills title and selling-point template strings with
// product attributes.
//
// Template strings, per-field fallbacks and pipeline labels live in embedded
// YAML catalogs, one per locale (en, zh). Every occurrence of a placeholder
// is replaced; missing attributes take the catalog fallback. Titles are
// whitespace-collapsed, NFC-normalised and truncated by character count.
//
// Randomness comes from an injected RandomSource so callers can make template
// choice deterministic.
package templating
