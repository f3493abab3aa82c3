package util

import "strings"

const (
	DefaultSnippetMax = 200
	ellipsis          = "..."
)

// Snippet normalizes whitespace in s and cuts it to at most maxRunes code
// points. A cut snippet has trailing whitespace trimmed and "..." appended.
func Snippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultSnippetMax
	}
	normalized := NormalizeWhitespace(s)
	runes := []rune(normalized)
	if len(runes) <= maxRunes {
		return normalized
	}
	return strings.TrimRight(string(runes[:maxRunes]), " ") + ellipsis
}
