package models

import (
	"strings"
	"unicode"
)

// NormalizeKey canonicalises a natural key (ISBN, member number) so that
// formatting variants compare equal: whitespace and hyphens are dropped and
// letters upper-cased. "978-3 16 148410-0" and "9783161484100" normalise alike.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' || r == '‐' || r == '‑' || r == '–' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// KeySuffix returns the trailing n characters of an already normalised key.
// ok is false when fuzzy matching is disabled (n <= 0) or the key is not
// longer than n, in which case a suffix match would just repeat the exact one.
func KeySuffix(norm string, n int) (suffix string, ok bool) {
	if n <= 0 {
		return "", false
	}
	runes := []rune(norm)
	if len(runes) <= n {
		return "", false
	}
	return string(runes[len(runes)-n:]), true
}
