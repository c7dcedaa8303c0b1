// Package refs finds <ref> citations and references in wikitext and turns
// edited references back into text.
//
// Everything here works on an immutable snapshot of the document. Nothing is
// cached across edits: callers re-scan the current text before every change
// and use Span.Locate to find the exact occurrence they mean.
package refs

import (
	"strings"

	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
	"github.com/aidanlsb/proveit/internal/wikilink"
)

// Kind distinguishes the three shapes a reference construct can take.
type Kind int

const (
	// KindCitation is a self-closing <ref name="x" /> pointing at a reference.
	KindCitation Kind = iota
	// KindRaw is a paired <ref>...</ref> holding free text only.
	KindRaw
	// KindTemplate is a paired <ref>...</ref> whose content invokes a
	// registered template.
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindCitation:
		return "citation"
	case KindRaw:
		return "raw"
	case KindTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Item is what citations and references have in common.
type Item interface {
	Kind() Kind
	// String renders the item as wikitext.
	String() string
	// Span is where the item was found.
	Span() Span
}

// Span records where an item was found in a snapshot.
type Span struct {
	// Source is the exact text of the item.
	Source string `json:"source"`
	// Start is the byte offset of Source in the snapshot.
	Start int `json:"start"`
	// Ordinal counts identical copies of Source before this one (0-based).
	Ordinal int `json:"ordinal"`
}

// End returns the offset just past Source.
func (s Span) End() int {
	return s.Start + len(s.Source)
}

// Locate finds this span in text, which may have changed since the scan.
// It reports false when text no longer holds Ordinal+1 copies of Source.
func (s Span) Locate(text string) (int, bool) {
	if s.Source == "" {
		return -1, false
	}
	at := LocateNth(text, s.Source, s.Ordinal)
	return at, at >= 0
}

// Citation is a self-closing <ref name="..." /> marker.
type Citation struct {
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`

	span      Span
	origName  string
	origGroup string
}

// NewCitation returns a citation that has not been written anywhere yet.
func NewCitation(name, group string) *Citation {
	return &Citation{Name: name, Group: group}
}

// Kind implements Item.
func (c *Citation) Kind() Kind { return KindCitation }

// Span implements Item.
func (c *Citation) Span() Span { return c.span }

// Modified reports whether String would differ from the scanned source.
func (c *Citation) Modified() bool {
	return c.span.Source == "" || c.Name != c.origName || c.Group != c.origGroup
}

// String returns the scanned source when nothing changed, else
// <ref name="..." group="..." />.
func (c *Citation) String() string {
	if !c.Modified() {
		return c.span.Source
	}
	var b strings.Builder
	b.WriteString("<ref")
	writeAttr(&b, "name", c.Name)
	writeAttr(&b, "group", c.Group)
	b.WriteString(" />")
	return b.String()
}

// Reference is a paired <ref>...</ref> construct.
type Reference struct {
	Name  string `json:"name,omitempty"`
	Group string `json:"group,omitempty"`
	// Content is everything between the tags, as scanned. Template edits are
	// applied to it when the reference is rendered.
	Content string `json:"content"`
	// Template is the first registered template invocation in Content, or nil.
	// Its Start is relative to Content.
	Template *template.Template `json:"-"`
	// Citations are the citations whose name equals Name, in document order.
	Citations []*Citation `json:"-"`

	span        Span
	openTag     string
	closeTag    string
	origName    string
	origGroup   string
	origContent string
}

// NewReference returns a reference that has not been written anywhere yet.
// tpl may be nil for a free-text reference.
func NewReference(name, group, content string, tpl *template.Template) *Reference {
	if tpl != nil && !strings.Contains(content, tpl.Source) {
		content += tpl.Source
	}
	return &Reference{
		Name:     name,
		Group:    group,
		Content:  content,
		Template: tpl,
		closeTag: "</ref>",
	}
}

// Kind implements Item.
func (r *Reference) Kind() Kind {
	if r.Template != nil {
		return KindTemplate
	}
	return KindRaw
}

// Span implements Item.
func (r *Reference) Span() Span { return r.span }

// Modified reports whether String would differ from the scanned source.
func (r *Reference) Modified() bool {
	return r.span.Source == "" ||
		r.Name != r.origName ||
		r.Group != r.origGroup ||
		r.Content != r.origContent ||
		(r.Template != nil && r.Template.Modified())
}

// OriginalName returns the name the reference had when it was scanned.
func (r *Reference) OriginalName() string { return r.origName }

// RenderedContent returns Content with the template's original source
// replaced by its current rendering. Text around the template is untouched.
func (r *Reference) RenderedContent() string {
	if r.Template == nil || !r.Template.Modified() {
		return r.Content
	}
	return strings.Replace(r.Content, r.Template.Source, r.Template.String(), 1)
}

// String renders the reference. An unmodified reference renders as its
// scanned source; otherwise the opening tag is rebuilt only if name or group
// changed, and the content only where the template changed.
func (r *Reference) String() string {
	if !r.Modified() {
		return r.span.Source
	}

	var b strings.Builder
	if r.openTag != "" && r.Name == r.origName && r.Group == r.origGroup {
		b.WriteString(r.openTag)
	} else {
		b.WriteString("<ref")
		writeAttr(&b, "name", r.Name)
		writeAttr(&b, "group", r.Group)
		b.WriteString(">")
	}
	b.WriteString(r.RenderedContent())
	if r.closeTag != "" {
		b.WriteString(r.closeTag)
	} else {
		b.WriteString("</ref>")
	}
	return b.String()
}

// Label returns the text that best summarizes the reference: the template's
// main parameter, else the first parameter in canonical order that has a
// value, else the content. Links are flattened to the text a reader sees.
func (r *Reference) Label(registry *templatedata.Registry) string {
	label := r.Content
	if r.Template != nil {
		var meta *templatedata.Metadata
		if registry != nil {
			meta, _ = registry.Lookup(r.Template.Name)
		}
		if v := mainValue(r.Template, meta); v != "" {
			label = v
		}
	}
	label = wikilink.Flatten(label)
	return strings.Join(strings.Fields(label), " ")
}

func mainValue(t *template.Template, meta *templatedata.Metadata) string {
	if meta == nil {
		return ""
	}
	if main := meta.MainParam(); main != "" {
		if v, ok := t.Params.Get(main); ok && v != "" {
			return v
		}
	}
	for _, name := range meta.ParamOrder() {
		if v, ok := t.Params.Get(name); ok && v != "" {
			return v
		}
	}
	return ""
}

func writeAttr(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	quote := `"`
	if strings.Contains(value, `"`) {
		quote = "'"
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quote)
	b.WriteString(value)
	b.WriteString(quote)
}
