// Package slugs derives identifiers from free text.
//
// Two strategies exist:
//   - Anchor slugs: HTML fragment ids for exported bibliographies. These keep
//     non-ASCII letters as-is.
//   - Reference names: the name="..." of a <ref>, built on gosimple/slug so
//     they transliterate to plain ASCII and survive any quoting style.
package slugs

import (
	"strconv"
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
)

// maxRefNameLen bounds generated reference names.
const maxRefNameLen = 32

// AnchorSlug converts text to a fragment id.
func AnchorSlug(text string) string {
	var result strings.Builder
	prevDash := false

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '-' || r == '_' || r == ':':
			if !prevDash && result.Len() > 0 {
				result.WriteRune('-')
				prevDash = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}

// ComponentSlug converts text to an ASCII slug.
func ComponentSlug(s string) string {
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.Join(strings.Fields(s), "-"))
	}
	return slugged
}

// RefName derives a reference name from text. Long names are cut at a word
// boundary. If taken reports the name as used, "-2", "-3", ... is appended
// until it is free. A text with nothing sluggable yields "ref".
func RefName(text string, taken func(string) bool) string {
	base := goslug.Make(text)
	if len(base) > maxRefNameLen {
		base = base[:maxRefNameLen]
		if i := strings.LastIndex(base, "-"); i > 0 {
			base = base[:i]
		}
	}
	base = strings.Trim(base, "-")
	if base == "" {
		base = "ref"
	}
	if taken == nil || !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}
