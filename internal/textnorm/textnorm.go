// Package textnorm produces canonical comparison keys for free-text fields:
// trimmed, whitespace-collapsed, accent-stripped, upper-cased. Every text
// matching and grouping step in the pipeline compares through this form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canonical returns the canonical comparison key for s. Missing input (empty
// or all-whitespace) stays missing — it is never turned into a literal
// placeholder string.
func Canonical(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return strings.ToUpper(s)
}

// CanonicalLower is Canonical folded to lower case, used where substring
// vocabularies are defined in lower case (weather conditions, month names).
func CanonicalLower(s string) string {
	return strings.ToLower(Canonical(s))
}
