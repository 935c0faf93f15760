package service

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// normalizeSlug lower-cases s and collapses every run of other characters into one dash.
func normalizeSlug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// slugFor prefers the explicit slug, then the title, then a random suffix.
func slugFor(explicit, title, prefix string) string {
	if slug := normalizeSlug(explicit); slug != "" {
		return slug
	}
	if slug := normalizeSlug(title); slug != "" {
		return slug
	}
	return prefix + "-" + uuid.NewString()[:8]
}
