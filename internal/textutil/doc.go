// Package textutil provides small text helpers shared across packages:
// rune-safe truncation, whitespace collapsing and portable file names.
package textutil
