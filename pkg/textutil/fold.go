// Package textutil normalizes free text for matching.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold lower-cases s and strips diacritics so "Función" and "funcion" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return folder.String(strings.TrimSpace(stripped))
}

// ContainsFold reports whether needle occurs in any of haystacks after folding.
// An empty needle matches everything.
func ContainsFold(needle string, haystacks ...string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	for _, h := range haystacks {
		if strings.Contains(Fold(h), n) {
			return true
		}
	}
	return false
}
