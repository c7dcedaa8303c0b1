package template

import (
	"regexp"
	"sort"
	"strings"

	"github.com/aidanlsb/proveit/internal/braces"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

// Locator finds invocations of registered templates in free text.
// A Locator is immutable and safe for concurrent use.
type Locator struct {
	registry *templatedata.Registry
	pattern  *regexp.Regexp
}

// NewLocator compiles a matcher for every name the registry knows, canonical
// titles and redirect aliases alike.
func NewLocator(registry *templatedata.Registry) *Locator {
	l := &Locator{registry: registry}
	if registry == nil {
		return l
	}

	names := registry.KnownNames()
	if len(names) == 0 {
		return l
	}
	// Longer names first so that "Cite book" wins over "Cite" at the same
	// offset; RE2 still falls back to the shorter alternative when the
	// longer one is not followed by a separator.
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})

	alternatives := make([]string, 0, len(names))
	for _, name := range names {
		words := strings.Fields(strings.ReplaceAll(name, "_", " "))
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(words, `[ _]+`))
	}
	l.pattern = regexp.MustCompile(`(?i)\{\{\s*(` + strings.Join(alternatives, "|") + `)(?:[\s|]|\}\})`)
	return l
}

// Locate returns the first invocation in content of any registered template.
// The returned template's Name is canonical: case is taken from the registry
// and redirects are followed. Finding nothing is the common case for
// free-text references and is reported as false, not as an error.
func (l *Locator) Locate(content string) (*Template, bool) {
	if l == nil || l.pattern == nil {
		return nil, false
	}
	m := l.pattern.FindStringSubmatchIndex(content)
	if m == nil {
		return nil, false
	}

	start := m[0]
	end := braces.TemplateEnd(content, start)

	t := Parse(content[start:end])
	t.Start = start
	if canonical, ok := l.registry.Resolve(content[m[2]:m[3]]); ok {
		t.Name = canonical
	}
	if meta, ok := l.registry.Lookup(t.Name); ok {
		t.Format = meta.Format()
	}
	return t, true
}

// Registry returns the registry the locator was built from.
func (l *Locator) Registry() *templatedata.Registry {
	if l == nil {
		return nil
	}
	return l.registry
}
