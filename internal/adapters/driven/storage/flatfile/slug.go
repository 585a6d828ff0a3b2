package flatfile

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxSlugLength bounds the slug part of a record filename, in runes.
const maxSlugLength = 80

// fallbackSlug is used when a title has no usable characters.
const fallbackSlug = "untitled"

// Slugify turns a title into a filename-safe slug.
// Letters (Latin and Arabic included), digits, '_' and '-' are kept;
// runs of whitespace and hyphens collapse to a single '_'.
func Slugify(title string) string {
	title = norm.NFC.String(title)

	var kept strings.Builder
	for _, r := range title {
		if keepSlugRune(r) {
			kept.WriteRune(r)
		}
	}
	cleaned := strings.ToLower(strings.TrimSpace(kept.String()))

	var out strings.Builder
	inSep := false
	for _, r := range cleaned {
		if r == '-' || unicode.IsSpace(r) {
			if !inSep {
				out.WriteRune('_')
				inSep = true
			}
			continue
		}
		inSep = false
		out.WriteRune(r)
	}

	slug := truncateRunes(out.String(), maxSlugLength)
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

func keepSlugRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
		return true
	case r == '_' || r == '-':
		return true
	case r >= 0x0600 && r <= 0x06FF:
		// Arabic block, including its combining marks.
		return true
	}
	return false
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
