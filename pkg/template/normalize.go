package template

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, trims, and strips diacritic marks so that "João",
// "joao " and "JOAO" all compare equal. Every string comparison in
// condition and tag matching goes through this.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}

	return out
}

// NormalizedEqual compares two strings after normalization.
func NormalizedEqual(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// NormalizedContains reports whether haystack contains needle after
// normalization.
func NormalizedContains(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}
