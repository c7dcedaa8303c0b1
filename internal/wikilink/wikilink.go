// Package wikilink scans MediaWiki internal links.
//
// Link grammar:
//
//	[[target]]
//	[[target|display text]]
//
// Notes:
//   - The target is trimmed of surrounding whitespace.
//   - The display text (if present) is also trimmed.
//   - Only the first pipe separates target from display; later pipes belong
//     to the display text, as in [[File:x.png|thumb|caption]].
package wikilink

import (
	"regexp"
	"strings"

	"github.com/aidanlsb/proveit/internal/braces"
)

// Match represents a link found in a string.
type Match struct {
	Target      string
	DisplayText *string
	Start       int
	End         int
	Literal     string
}

// Text returns the text a reader sees for the link: the display text when
// present, else the target.
func (m Match) Text() string {
	if m.DisplayText != nil {
		return *m.DisplayText
	}
	return m.Target
}

// re matches [[target]] or [[target|display]] without nested links.
var re = regexp.MustCompile(`\[\[([^\]\[|]+)(?:\|([^\]\[]*))?\]\]`)

// ParseExact parses a string that is exactly a link literal, returning its target and optional display text.
func ParseExact(s string) (target string, display *string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") {
		return "", nil, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "[["), "]]")
	parts := strings.SplitN(inner, "|", 2)
	target = strings.TrimSpace(parts[0])
	if target == "" {
		return "", nil, false
	}
	if len(parts) == 2 {
		d := strings.TrimSpace(parts[1])
		display = &d
	}
	return target, display, true
}

// FindAll finds the innermost links in s, in order.
func FindAll(s string) []Match {
	var out []Match

	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]

		target := strings.TrimSpace(s[m[2]:m[3]])
		if target == "" {
			continue
		}

		var display *string
		if m[4] >= 0 && m[5] >= 0 {
			d := strings.TrimSpace(s[m[4]:m[5]])
			display = &d
		}

		out = append(out, Match{
			Target:      target,
			DisplayText: display,
			Start:       start,
			End:         end,
			Literal:     s[start:end],
		})
	}

	return out
}

// ScanAt scans a link starting at `start` in `input`, honoring nested links.
// `start` must point at the first '[' of a "[[" sequence.
// Returns the end offset (exclusive), target, literal, and ok.
func ScanAt(input string, start int) (end int, target string, literal string, ok bool) {
	if start < 0 || start+1 >= len(input) {
		return 0, "", "", false
	}
	if input[start] != '[' || input[start+1] != '[' {
		return 0, "", "", false
	}

	end = braces.ScanAt(input, start, braces.Link)
	literal = input[start:end]
	if !strings.HasSuffix(literal, "]]") {
		return 0, "", "", false
	}
	t, _, parsed := ParseExact(literal)
	if !parsed {
		return 0, "", "", false
	}
	return end, t, literal, true
}

// Flatten replaces every link in s with the text a reader would see.
// Nested links are flattened from the inside out.
func Flatten(s string) string {
	for {
		matches := FindAll(s)
		if len(matches) == 0 {
			return s
		}
		var b strings.Builder
		last := 0
		for _, m := range matches {
			b.WriteString(s[last:m.Start])
			b.WriteString(m.Text())
			last = m.End
		}
		b.WriteString(s[last:])
		s = b.String()
	}
}
