package refs

import (
	"regexp"
	"strings"

	"github.com/aidanlsb/proveit/internal/template"
)

var (
	// <ref name="a" />, <ref name='a' group=g/>, <ref/>
	citationPattern = regexp.MustCompile(`(?i)<\s*ref((?:\s[^<>]*?)?)\s*/\s*>`)

	// <ref ...>content</ref>, non-greedy. The attribute group may not end in
	// '/', so a self-closing tag never opens a reference.
	referencePattern = regexp.MustCompile(`(?is)(<\s*ref(?:\s[^<>]*?[^/<>\s])?\s*>)(.*?)(<\s*/\s*ref\s*>)`)

	// name="a", name='a' and name=a, in any order with group.
	attrPattern = regexp.MustCompile(`(?i)(?:^|\s)(name|group)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'/>]+))`)
)

// Snapshot is the result of scanning one version of a document.
type Snapshot struct {
	Text       string
	Citations  []*Citation
	References []*Reference
}

// Scan finds every citation and reference in text, in document order, and
// links each named reference to the citations carrying its name. Template
// invocations inside reference content are found with loc, which may be nil.
func Scan(text string, loc *template.Locator) *Snapshot {
	s := &Snapshot{Text: text}

	for _, m := range citationPattern.FindAllStringSubmatchIndex(text, -1) {
		src := text[m[0]:m[1]]
		name, group := attrs(text[m[2]:m[3]])
		s.Citations = append(s.Citations, &Citation{
			Name:      name,
			Group:     group,
			span:      Span{Source: src, Start: m[0], Ordinal: Ordinal(text, src, m[0])},
			origName:  name,
			origGroup: group,
		})
	}

	for _, m := range referencePattern.FindAllStringSubmatchIndex(text, -1) {
		src := text[m[0]:m[1]]
		open := text[m[2]:m[3]]
		content := text[m[4]:m[5]]
		name, group := attrs(open)

		r := &Reference{
			Name:        name,
			Group:       group,
			Content:     content,
			span:        Span{Source: src, Start: m[0], Ordinal: Ordinal(text, src, m[0])},
			openTag:     open,
			closeTag:    text[m[6]:m[7]],
			origName:    name,
			origGroup:   group,
			origContent: content,
		}
		if t, ok := loc.Locate(content); ok {
			r.Template = t
		}
		s.References = append(s.References, r)
	}

	for _, r := range s.References {
		if r.Name == "" {
			continue
		}
		for _, c := range s.Citations {
			if c.Name == r.Name {
				r.Citations = append(r.Citations, c)
			}
		}
	}
	return s
}

// attrs extracts the name and group attributes from the inside of a ref tag.
// The first occurrence of each wins.
func attrs(tag string) (name, group string) {
	var seenName, seenGroup bool
	for _, m := range attrPattern.FindAllStringSubmatch(tag, -1) {
		value := m[2] + m[3] + m[4]
		value = strings.TrimSpace(value)
		switch strings.ToLower(m[1]) {
		case "name":
			if !seenName {
				name, seenName = value, true
			}
		case "group":
			if !seenGroup {
				group, seenGroup = value, true
			}
		}
	}
	return name, group
}

// Reference returns the n-th reference (1-based), as numbered for display.
func (s *Snapshot) Reference(n int) (*Reference, bool) {
	if n < 1 || n > len(s.References) {
		return nil, false
	}
	return s.References[n-1], true
}

// ByName returns the first reference with the given name.
func (s *Snapshot) ByName(name string) (*Reference, bool) {
	if name == "" {
		return nil, false
	}
	for _, r := range s.References {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// ReferenceAt returns the reference whose source covers offset.
func (s *Snapshot) ReferenceAt(offset int) (*Reference, bool) {
	for _, r := range s.References {
		if offset >= r.span.Start && offset < r.span.End() {
			return r, true
		}
	}
	return nil, false
}

// Names returns the names in use by references and citations.
func (s *Snapshot) Names() map[string]bool {
	names := make(map[string]bool)
	for _, r := range s.References {
		if r.Name != "" {
			names[r.Name] = true
		}
	}
	for _, c := range s.Citations {
		if c.Name != "" {
			names[c.Name] = true
		}
	}
	return names
}

// Orphans returns citations whose name matches no reference.
func (s *Snapshot) Orphans() []*Citation {
	defined := make(map[string]bool, len(s.References))
	for _, r := range s.References {
		if r.Name != "" {
			defined[r.Name] = true
		}
	}
	var out []*Citation
	for _, c := range s.Citations {
		if !defined[c.Name] {
			out = append(out, c)
		}
	}
	return out
}
