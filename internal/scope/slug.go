package scope

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces   = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts a display name to a directory-safe slug.
// Accents are folded to ASCII, the result is lowercased, and runs of spaces
// or dashes collapse to single underscores.
// Example: "Jacn Soluções Ltda" -> "jacn_solucoes_ltda".
func Slugify(value string) string {
	folded, _, err := transform.String(transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), value)
	if err != nil {
		folded = value
	}

	// Drop any remaining non-ASCII runes
	var b strings.Builder
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}

	s := nonSlugChars.ReplaceAllString(b.String(), "")
	s = strings.ToLower(strings.TrimSpace(s))
	return slugSpaces.ReplaceAllString(s, "_")
}
