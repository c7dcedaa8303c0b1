package refs

import "strings"

// LocateNth returns the offset of the n-th (0-based) non-overlapping
// occurrence of fragment in text, or -1.
func LocateNth(text, fragment string, n int) int {
	if fragment == "" || n < 0 {
		return -1
	}
	pos := 0
	for i := 0; ; i++ {
		idx := strings.Index(text[pos:], fragment)
		if idx < 0 {
			return -1
		}
		if i == n {
			return pos + idx
		}
		pos += idx + len(fragment)
	}
}

// Ordinal returns how many occurrences of fragment, counted the way
// LocateNth counts them, begin before start. For an occurrence found at start
// this is the n that LocateNth needs to find it again.
func Ordinal(text, fragment string, start int) int {
	if fragment == "" {
		return 0
	}
	n := 0
	pos := 0
	for {
		idx := strings.Index(text[pos:], fragment)
		if idx < 0 || pos+idx >= start {
			return n
		}
		n++
		pos += idx + len(fragment)
	}
}
