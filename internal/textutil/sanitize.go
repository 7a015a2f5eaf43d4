package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxFileNameRunes keeps generated names well under common 255-byte limits
// even for CJK product names.
const maxFileNameRunes = 80

// SanitizeFileName turns a product or export label into a portable file
// name. Path separators, reserved characters and control runes become
// dashes; runs of dashes collapse; whitespace collapses to single spaces.
// The extension survives truncation. Blank input yields "untitled".
func SanitizeFileName(name string) string {
	name = CollapseWhitespace(norm.NFC.String(name))

	var b strings.Builder
	lastDash := false
	for _, r := range name {
		if strings.ContainsRune(`/\:*?"<>|`, r) || unicode.IsControl(r) {
			r = '-'
		}
		if r == '-' && lastDash {
			continue
		}
		lastDash = r == '-'
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "-. ")
	if out == "" {
		return "untitled"
	}

	ext := ""
	if dot := strings.LastIndexByte(out, '.'); dot > 0 && len(out)-dot <= 6 {
		ext = out[dot:]
		out = out[:dot]
	}
	return strings.TrimRight(TruncateRunes(out, maxFileNameRunes), "-. ") + ext
}
