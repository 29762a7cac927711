// Package textfold normalizes free text for matching: lower case, no diacritics,
// collapsed whitespace. "ÇARŞI", "Çarşı" and "carsi" all fold to "carsi".
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var dotless = strings.NewReplacer("ı", "i")

// Fold returns the matching form of s
func Fold(s string) string {
	lowered := cases.Lower(language.Und).String(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		stripped = lowered
	}

	return strings.Join(strings.Fields(dotless.Replace(stripped)), " ")
}

// ContainsAny reports whether folded s contains any of the folded tokens
func ContainsAny(s string, tokens ...string) bool {
	folded := Fold(s)
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if strings.Contains(folded, Fold(tok)) {
			return true
		}
	}
	return false
}
