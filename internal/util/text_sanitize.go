package util

import (
	"strings"
	"unicode"
)

// SanitizeText drops what Postgres text columns reject or what extractors
// leave behind: invalid UTF-8, NUL and every other control character except
// newline, carriage return and tab. The result is trimmed.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// NormalizeWhitespace collapses every whitespace run to a single space and trims.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeText is what every parser applies to extracted text.
func NormalizeText(s string) string {
	return NormalizeWhitespace(SanitizeText(s))
}
