package index

import "strings"

// BuildSearchQuery turns user input into an FTS5 MATCH expression over the
// label and content columns of fts_refs. Quoted phrases and boolean
// operators pass through; hyphenated words are quoted so FTS5 does not read
// them as column filters.
func BuildSearchQuery(userQuery string) string {
	q := strings.TrimSpace(userQuery)
	if q == "" {
		return `{label content}: ""`
	}
	// Parentheses make the column filter cover the whole expression.
	return "{label content}: (" + sanitizeFTSQuery(q) + ")"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func sanitizeFTSQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)

	inQuotes := false
	for i := 0; i < len(q); {
		c := q[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			b.WriteByte(c)
			i++
			continue
		case inQuotes, isSpace(c), c == '(' || c == ')':
			b.WriteByte(c)
			i++
			continue
		}

		start := i
		for i < len(q) && q[i] != '"' && q[i] != '(' && q[i] != ')' && !isSpace(q[i]) {
			i++
		}
		tok := q[start:i]

		switch strings.ToUpper(tok) {
		case "AND", "OR", "NOT", "NEAR":
			b.WriteString(tok)
			continue
		}

		// Hyphens, colons and dots are syntax errors or column filters in
		// FTS5 barewords.
		if strings.ContainsAny(tok, "-:./") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(tok, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(tok)
	}
	if inQuotes {
		b.WriteByte('"')
	}
	return b.String()
}
