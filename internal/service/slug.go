package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify converts a category name into its URL-safe slug while keeping
// Unicode letters, so "Работа" becomes "работа" rather than an empty
// string. The value is NFKC-normalized and lowercased; runs of whitespace
// and dashes collapse into a single dash; everything that is not a letter,
// digit, underscore or dash is dropped.
func Slugify(value string) string {
	value = norm.NFKC.String(value)
	value = strings.ToLower(strings.TrimSpace(value))

	var b strings.Builder
	b.Grow(len(value))
	pendingDash := false

	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		}
	}

	return strings.Trim(b.String(), "-_")
}
