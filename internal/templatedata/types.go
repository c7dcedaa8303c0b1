// Package templatedata holds template metadata: which templates exist, what
// parameters they take, how those parameters are aliased, and how an
// invocation should be formatted when it is rebuilt.
//
// The model follows MediaWiki's TemplateData closely enough that a
// templatedata API response can be loaded directly.
package templatedata

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the preferred serialization style of a template invocation.
type Format string

const (
	// FormatInline renders parameters as " |key=value".
	FormatInline Format = "inline"
	// FormatBlock renders parameters as "\r\n| key = value", one per line.
	FormatBlock Format = "block"
)

// ParseFormat maps a TemplateData format string to a Format.
// Custom format strings that put each parameter on its own line count as
// block; everything else is inline.
func ParseFormat(s string) Format {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(FormatBlock)):
		return FormatBlock
	case strings.Contains(s, "\n|"):
		return FormatBlock
	default:
		return FormatInline
	}
}

// Text is a possibly localized string. TemplateData allows either a plain
// string or a map of language code to string.
type Text map[string]string

// In returns the text for lang, falling back to English and then to any
// available language.
func (t Text) In(lang string) string {
	if len(t) == 0 {
		return ""
	}
	if s, ok := t[lang]; ok {
		return s
	}
	if s, ok := t["en"]; ok {
		return s
	}
	if s, ok := t[""]; ok {
		return s
	}
	for _, s := range t {
		return s
	}
	return ""
}

// UnmarshalYAML accepts a scalar or a language map.
func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*t = nil
			return nil
		}
		*t = Text{"": node.Value}
		return nil
	case yaml.MappingNode:
		m := map[string]string{}
		if err := node.Decode(&m); err != nil {
			return err
		}
		*t = Text(m)
		return nil
	default:
		return fmt.Errorf("line %d: expected string or language map", node.Line)
	}
}

// List is a string list that may be written as a single scalar.
type List []string

// UnmarshalYAML accepts a scalar or a sequence.
func (l *List) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			*l = nil
			return nil
		}
		*l = List{node.Value}
		return nil
	case yaml.SequenceNode:
		// Citoid-style maps nest lists ([["last1", "first1"], ...]); flatten them.
		var items List
		for _, child := range node.Content {
			var sub List
			if err := sub.UnmarshalYAML(child); err != nil {
				return err
			}
			items = append(items, sub...)
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list", node.Line)
	}
}

// Contains reports whether s is in the list.
func (l List) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}

// Flag is a boolean that TemplateData sometimes writes as a string
// (deprecated: "use X instead" means true).
type Flag bool

// UnmarshalYAML accepts a boolean or a string.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected boolean or string", node.Line)
	}
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*f = Flag(b)
	case "!!null":
		*f = false
	default:
		*f = Flag(strings.TrimSpace(node.Value) != "")
	}
	return nil
}

// Param describes one template parameter.
type Param struct {
	Label       Text   `yaml:"label"`
	Description Text   `yaml:"description"`
	Type        string `yaml:"type"`
	Aliases     List   `yaml:"aliases"`
	Required    Flag   `yaml:"required"`
	Suggested   Flag   `yaml:"suggested"`
	Deprecated  Flag   `yaml:"deprecated"`
	Default     Text   `yaml:"default"`
}

// ParamSet is the ordered set of a template's parameters.
type ParamSet struct {
	names  []string
	byName map[string]*Param
}

// UnmarshalYAML decodes a mapping of parameter name to Param, keeping the
// order in which the names were written.
func (ps *ParamSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}
	ps.names = nil
	ps.byName = make(map[string]*Param, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		p := &Param{}
		if err := node.Content[i+1].Decode(p); err != nil {
			return fmt.Errorf("param %q: %w", name, err)
		}
		ps.Add(name, p)
	}
	return nil
}

// Add registers a parameter. Adding an existing name replaces its definition
// and keeps its position.
func (ps *ParamSet) Add(name string, p *Param) {
	if ps.byName == nil {
		ps.byName = make(map[string]*Param)
	}
	if _, exists := ps.byName[name]; !exists {
		ps.names = append(ps.names, name)
	}
	ps.byName[name] = p
}

// Get returns the parameter with the given canonical name.
func (ps *ParamSet) Get(name string) (*Param, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Names returns the canonical parameter names in declaration order.
func (ps *ParamSet) Names() []string {
	return append([]string(nil), ps.names...)
}

// Len returns the number of parameters.
func (ps *ParamSet) Len() int {
	return len(ps.names)
}

// Metadata is the TemplateData for one template.
type Metadata struct {
	// Title is the canonical template name without namespace, e.g. "Cite book".
	Title       string                     `yaml:"title"`
	Description Text                       `yaml:"description"`
	Params      ParamSet                   `yaml:"params"`
	Order       []string                   `yaml:"paramOrder"`
	RawFormat   string                     `yaml:"format"`
	Maps        map[string]map[string]List `yaml:"maps"`
}

// Format returns the declared serialization format (inline by default).
func (m *Metadata) Format() Format {
	if m == nil {
		return FormatInline
	}
	return ParseFormat(m.RawFormat)
}

// ParamOrder returns the canonical parameter order: paramOrder when given,
// else declaration order. Parameters missing from paramOrder are appended in
// declaration order.
func (m *Metadata) ParamOrder() []string {
	if m == nil {
		return nil
	}
	if len(m.Order) == 0 {
		return m.Params.Names()
	}
	seen := make(map[string]bool, len(m.Order))
	out := make([]string, 0, m.Params.Len())
	for _, name := range m.Order {
		if _, ok := m.Params.Get(name); ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	for _, name := range m.Params.Names() {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}

// Canonical maps a parameter name as written to its canonical name.
// It reports false for unregistered parameters.
func (m *Metadata) Canonical(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	name = strings.TrimSpace(name)
	if _, ok := m.Params.Get(name); ok {
		return name, true
	}
	for _, canonical := range m.Params.Names() {
		p, _ := m.Params.Get(canonical)
		for _, alias := range p.Aliases {
			if strings.TrimSpace(alias) == name {
				return canonical, true
			}
		}
	}
	return "", false
}

// ServiceMap returns the field-mapping table registered for an external
// service under maps.<service>.
func (m *Metadata) ServiceMap(service string) map[string]List {
	if m == nil || m.Maps == nil {
		return nil
	}
	return m.Maps[service]
}

// MainParam returns the parameter that best summarizes a reference, taken from
// maps.proveit.main.
func (m *Metadata) MainParam() string {
	if main := m.ServiceMap("proveit")["main"]; len(main) > 0 {
		return main[0]
	}
	return ""
}

// IsTextarea reports whether a parameter is flagged for multi-line editing
// in maps.proveit.textarea.
func (m *Metadata) IsTextarea(name string) bool {
	return m.ServiceMap("proveit")["textarea"].Contains(name)
}
