// Package ingest turns raw behaviour and gradebook grids into per-student records.
package ingest

import (
	"strings"
	"unicode"
)

// quoteReplacer drops ASCII and Hebrew quote marks (geresh, gershayim) plus typographic quotes.
var quoteReplacer = strings.NewReplacer(
	`"`, "", "'", "", "`", "",
	"׳", "", "״", "",
	"‘", "", "’", "", "“", "", "”", "",
)

// Normalize strips invisible format characters and quotes, then collapses whitespace.
func Normalize(s string) string {
	s = stripFormatChars(s)
	s = quoteReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func stripFormatChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := Normalize(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}
