// Package braces scans balanced wikitext delimiters such as {{ }} and [[ ]].
//
// Delimiters are consumed greedily two characters at a time, left to right.
// Three consecutive '{' therefore count as one opener followed by a literal
// '{'. This matches how templates are written in practice; it is not general
// bracket matching.
//
// Nothing in this package returns an error. Unbalanced input degrades to
// "the span runs to the end of the text".
package braces

import "strings"

// Pair is an opening and closing delimiter.
type Pair struct {
	Open  string
	Close string
}

var (
	// Template delimits a template invocation: {{name|...}}.
	Template = Pair{Open: "{{", Close: "}}"}
	// Link delimits an internal link: [[target|display]].
	Link = Pair{Open: "[[", Close: "]]"}
)

// ScanAt returns the end offset (exclusive) of the balanced span that opens
// at start. start must point at the first character of p.Open; if it does
// not, start is returned and the span is empty. If the depth never returns to
// zero the span ends at len(text).
func ScanAt(text string, start int, p Pair) int {
	if start < 0 || start > len(text) {
		return len(text)
	}
	if !strings.HasPrefix(text[start:], p.Open) {
		return start
	}

	depth := 0
	i := start
	for i < len(text) {
		switch {
		case strings.HasPrefix(text[i:], p.Open):
			depth++
			i += len(p.Open)
		case strings.HasPrefix(text[i:], p.Close):
			depth--
			i += len(p.Close)
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(text)
}

// TemplateEnd is ScanAt for {{ }}.
func TemplateEnd(text string, start int) int {
	return ScanAt(text, start, Template)
}

// Balance returns the number of openers minus the number of closers in s,
// counted with the same greedy left-to-right rule as ScanAt.
// A positive result means s leaves that many spans open.
func Balance(s string, p Pair) int {
	n := 0
	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], p.Open):
			n++
			i += len(p.Open)
		case strings.HasPrefix(s[i:], p.Close):
			n--
			i += len(p.Close)
		default:
			i++
		}
	}
	return n
}

// IndexTopLevel returns the index of the first sep byte in s that is not
// nested inside any of the given pairs, or -1.
// Closers without a matching opener are ignored.
func IndexTopLevel(s string, sep byte, pairs ...Pair) int {
	depth := make([]int, len(pairs))
	nested := func() bool {
		for _, d := range depth {
			if d > 0 {
				return true
			}
		}
		return false
	}

	i := 0
outer:
	for i < len(s) {
		for k, p := range pairs {
			if strings.HasPrefix(s[i:], p.Open) {
				depth[k]++
				i += len(p.Open)
				continue outer
			}
			if strings.HasPrefix(s[i:], p.Close) {
				if depth[k] > 0 {
					depth[k]--
				}
				i += len(p.Close)
				continue outer
			}
		}
		if s[i] == sep && !nested() {
			return i
		}
		i++
	}
	return -1
}
