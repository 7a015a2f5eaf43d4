package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON decodes the first JSON object in a model reply into target.
// Code fences and prose before or after the object are ignored.
func DecodeJSON(content string, target any) error {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		if strings.TrimSpace(content) == "" {
			return errors.New("decode model json: empty reply")
		}
		return fmt.Errorf("decode model json: no object in reply: %s", snippet(content))
	}
	if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(target); err != nil {
		return fmt.Errorf("decode model json: %w: %s", err, snippet(content[start:]))
	}
	return nil
}

// snippet collapses whitespace and keeps the first 160 runes for error messages.
func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > 160 {
		return string(runes[:160]) + "..."
	}
	return clean
}
