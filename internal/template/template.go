// Package template parses and rebuilds wikitext template invocations such as
// {{Cite book |title=On the Origin of Species |last=Darwin}}.
//
// A parsed Template remembers exactly how every parameter was written, so
// String() on an unmodified template returns the source byte-for-byte and
// String() after an edit changes only the edited bytes.
package template

import (
	"strings"
	"unicode"

	"github.com/aidanlsb/proveit/internal/braces"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

// Template is a single template invocation.
type Template struct {
	// Name is the template name: canonical when the template was found by a
	// Locator, as written (trimmed) when it came from Parse.
	Name string
	// Source is the invocation exactly as it appeared, braces included.
	Source string
	// Start is the offset of Source in the text it was located in.
	Start int
	// Format is used when parameters are added to a template that has none,
	// and by Rebuild.
	Format templatedata.Format
	// Params holds the parameters in source order.
	Params Params

	nameRaw string
	written string
	tail    string
	closed  bool
	renamed bool
}

// Parse splits a template invocation into its name and parameters.
//
// Pipes inside [[links]] and nested {{templates}} do not separate
// parameters. Positional parameters are numbered from 1 in encounter order,
// independent of named parameters between them. Names and values are trimmed;
// whitespace inside values is kept.
//
// The split is a single-pass heuristic: an unbalanced "[[" or "{{" in plain
// prose will swallow the following parameters.
func Parse(raw string) *Template {
	t := &Template{Source: raw, Format: templatedata.FormatInline}

	inner := strings.TrimPrefix(raw, "{{")
	if len(inner) < len(raw) && strings.HasSuffix(inner, "}}") {
		inner = inner[:len(inner)-2]
		t.closed = true
	}

	segments := strings.Split(inner, "|")
	t.nameRaw = segments[0]
	t.written = strings.TrimSpace(t.nameRaw)
	t.Name = t.written

	linkDepth, templateDepth := 0, 0
	positional := 0
	for _, seg := range segments[1:] {
		if (linkDepth > 0 || templateDepth > 0) && len(t.Params.items) > 0 {
			// Still inside a link or nested template: this pipe belongs to
			// the previous parameter's value.
			last := t.Params.items[len(t.Params.items)-1]
			last.raw += "|" + seg
			last.Value = last.parsedValue()
			linkDepth = nonNegative(linkDepth + braces.Balance(seg, braces.Link))
			templateDepth = nonNegative(templateDepth + braces.Balance(seg, braces.Template))
			continue
		}

		p := &Param{raw: seg, eq: braces.IndexTopLevel(seg, '=', braces.Template, braces.Link)}
		if p.eq < 0 {
			positional++
			p.Key = Positional(positional)
		} else {
			p.Key = Named(seg[:p.eq])
		}
		p.Value = p.parsedValue()
		t.Params.items = append(t.Params.items, p)

		linkDepth = nonNegative(braces.Balance(seg, braces.Link))
		templateDepth = nonNegative(braces.Balance(seg, braces.Template))
	}

	if n := len(t.Params.items); n > 0 {
		t.tail = trailingSpace(t.Params.items[n-1].raw)
	} else {
		t.tail = trailingSpace(t.nameRaw)
	}
	return t
}

// ParseParams returns just the parameters of a template invocation.
func ParseParams(raw string) Params {
	return Parse(raw).Params
}

// New returns an empty template that has not been written anywhere yet.
func New(name string, format templatedata.Format) *Template {
	name = strings.TrimSpace(name)
	t := &Template{
		Name:    name,
		Format:  format,
		nameRaw: name,
		written: name,
		closed:  true,
	}
	t.Source = "{{" + name + "}}"
	return t
}

// Written returns the template name as it appears in the source.
func (t *Template) Written() string {
	return t.written
}

// Rename changes the template name written in the source.
func (t *Template) Rename(name string) {
	name = strings.TrimSpace(name)
	if name == "" || name == t.written {
		return
	}
	s, e := spaceBounds(t.nameRaw)
	t.nameRaw = t.nameRaw[:s] + name + t.nameRaw[e:]
	t.written = name
	t.Name = name
	t.renamed = true
}

// Modified reports whether String() would differ from Source.
func (t *Template) Modified() bool {
	return t.renamed || t.Params.dirty()
}

// Clone returns a deep copy.
func (t *Template) Clone() *Template {
	cp := *t
	cp.Params = t.Params.Clone()
	return &cp
}

// String renders the template. An unmodified template renders as Source.
// Edited parameters change in place; added parameters are appended after the
// last existing one in the style the source already uses.
func (t *Template) String() string {
	if !t.Modified() {
		return t.Source
	}

	var existing []*Param
	var added []*Param
	for _, p := range t.Params.items {
		if p.added {
			added = append(added, p)
		} else {
			existing = append(existing, p)
		}
	}

	segments := make([]string, 0, len(existing)+1)
	segments = append(segments, t.nameRaw)
	for _, p := range existing {
		segments = append(segments, p.render())
	}
	last := len(segments) - 1
	segments[last] = strings.TrimRightFunc(segments[last], unicode.IsSpace)

	var b strings.Builder
	b.WriteString("{{")
	b.WriteString(strings.Join(segments, "|"))

	tail := t.tail
	if len(added) > 0 {
		st := t.style()
		for _, p := range added {
			b.WriteString(st.prefix)
			b.WriteString("|")
			b.WriteString(st.lead)
			b.WriteString(p.Key.String())
			b.WriteString(st.beforeEq)
			b.WriteString("=")
			b.WriteString(st.afterEq)
			b.WriteString(p.Value)
		}
		// Spaces left over from the old last parameter stay on its line.
		if i := strings.IndexAny(tail, "\r\n"); i > 0 {
			tail = tail[i:]
		}
		if tail == "" && len(existing) == 0 && t.Format == templatedata.FormatBlock {
			tail = "\r\n"
		}
	}
	b.WriteString(tail)

	if t.closed {
		b.WriteString("}}")
	}
	return b.String()
}

// Rebuild renders the template from scratch in the given format, ignoring
// how the source was written. Parameters follow order; parameters missing
// from order come after, in source order. Empty values are skipped.
//
//	inline: {{name |key=value |key=value}}
//	block:  {{name\r\n| key = value\r\n| key = value\r\n}}
func (t *Template) Rebuild(format templatedata.Format, order []string) string {
	var b strings.Builder
	b.WriteString("{{")
	b.WriteString(t.Name)

	for _, p := range t.ordered(order) {
		if p.Value == "" {
			continue
		}
		bare := p.Key.IsPositional() && braces.IndexTopLevel(p.Value, '=', braces.Template, braces.Link) < 0
		switch format {
		case templatedata.FormatBlock:
			b.WriteString("\r\n| ")
			if !bare {
				b.WriteString(p.Key.String())
				b.WriteString(" = ")
			}
		default:
			b.WriteString(" |")
			if !bare {
				b.WriteString(p.Key.String())
				b.WriteString("=")
			}
		}
		b.WriteString(p.Value)
	}

	if format == templatedata.FormatBlock {
		b.WriteString("\r\n")
	}
	b.WriteString("}}")
	return b.String()
}

// Order returns the parameter keys present in t, arranged by the canonical
// order of meta followed by the keys meta does not know, in source order.
func (t *Template) Order(meta *templatedata.Metadata) []Key {
	params := t.ordered(meta.ParamOrder())
	out := make([]Key, len(params))
	for i, p := range params {
		out[i] = p.Key
	}
	return out
}

// ordered returns one parameter per key (the last occurrence), arranged by
// order and then by source order.
func (t *Template) ordered(order []string) []*Param {
	effective := make(map[string]*Param, len(t.Params.items))
	var sourceOrder []string
	for _, p := range t.Params.items {
		k := p.Key.String()
		if _, seen := effective[k]; !seen {
			sourceOrder = append(sourceOrder, k)
		}
		effective[k] = p
	}

	out := make([]*Param, 0, len(effective))
	used := make(map[string]bool, len(effective))
	for _, k := range order {
		if p, ok := effective[k]; ok && !used[k] {
			out = append(out, p)
			used[k] = true
		}
	}
	for _, k := range sourceOrder {
		if !used[k] {
			out = append(out, effective[k])
			used[k] = true
		}
	}
	return out
}

type style struct {
	prefix   string // whitespace before each '|'
	lead     string // whitespace after '|'
	beforeEq string
	afterEq  string
}

// style infers how new parameters should be written from the existing ones,
// falling back to the declared format.
func (t *Template) style() style {
	var st style
	switch t.Format {
	case templatedata.FormatBlock:
		st = style{prefix: "\r\n", lead: " ", beforeEq: " ", afterEq: " "}
	default:
		st = style{prefix: " "}
	}

	var existing []*Param
	for _, p := range t.Params.items {
		if !p.added {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return st
	}

	if len(existing) >= 2 {
		st.prefix = trailingSpace(existing[0].raw)
	} else {
		st.prefix = trailingSpace(t.nameRaw)
	}
	for _, p := range existing {
		if p.eq < 0 || strings.TrimSpace(p.raw[p.eq+1:]) == "" {
			continue
		}
		st.lead = leadingSpace(p.raw)
		st.beforeEq = trailingSpace(p.raw[:p.eq])
		st.afterEq = leadingSpace(p.raw[p.eq+1:])
		break
	}
	return st
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
