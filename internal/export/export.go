// Package export renders the references of a document as a bibliography in
// markdown, HTML or styled terminal text.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/slugs"
	"github.com/aidanlsb/proveit/internal/templatedata"
	"github.com/aidanlsb/proveit/internal/ui"
	"github.com/aidanlsb/proveit/internal/wikilink"
)

// Field is one parameter of an exported reference.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entry is one reference in a bibliography.
type Entry struct {
	Number    int     `json:"number"`
	Name      string  `json:"name,omitempty"`
	Group     string  `json:"group,omitempty"`
	Kind      string  `json:"kind"`
	Template  string  `json:"template,omitempty"`
	Label     string  `json:"label"`
	Fields    []Field `json:"fields,omitempty"`
	Citations int     `json:"citations"`
	// Source is the reference's wikitext as it appears in the document.
	Source string `json:"source"`
}

// Entries builds bibliography entries from a snapshot. Template parameters
// are listed in canonical order; empty values are left out.
func Entries(snap *refs.Snapshot, registry *templatedata.Registry) []Entry {
	entries := make([]Entry, 0, len(snap.References))
	for i, r := range snap.References {
		e := Entry{
			Number:    i + 1,
			Name:      r.Name,
			Group:     r.Group,
			Kind:      r.Kind().String(),
			Label:     r.Label(registry),
			Citations: len(r.Citations),
			Source:    r.Span().Source,
		}
		if r.Template != nil {
			e.Template = r.Template.Name
			var meta *templatedata.Metadata
			if registry != nil {
				meta, _ = registry.Lookup(r.Template.Name)
			}
			for _, key := range r.Template.Order(meta) {
				v, _ := r.Template.Params.Get(key.String())
				if v == "" {
					continue
				}
				e.Fields = append(e.Fields, Field{Key: key.String(), Value: wikilink.Flatten(v)})
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// Options controls markdown generation.
type Options struct {
	Title string
	// Anchors adds {#id} attributes to entry headings. Only renderers with
	// heading attributes enabled understand them.
	Anchors bool
	// Source adds each reference's wikitext in a fenced code block.
	Source bool
}

// Markdown renders entries as a markdown document.
func Markdown(entries []Entry, opts Options) string {
	var b strings.Builder
	title := opts.Title
	if title == "" {
		title = "References"
	}
	fmt.Fprintf(&b, "# %s\n\n", escape(title))

	if len(entries) == 0 {
		b.WriteString("_No references._\n")
		return b.String()
	}

	for _, e := range entries {
		fmt.Fprintf(&b, "## %d. %s", e.Number, escape(e.Label))
		if opts.Anchors {
			id := e.Name
			if id == "" {
				id = fmt.Sprintf("%d", e.Number)
			}
			fmt.Fprintf(&b, " {#ref-%s}", slugs.AnchorSlug(id))
		}
		b.WriteString("\n\n")

		var meta []string
		if e.Template != "" {
			meta = append(meta, "**"+escape(e.Template)+"**")
		} else {
			meta = append(meta, "_free text_")
		}
		if e.Name != "" {
			meta = append(meta, "`"+strings.ReplaceAll(e.Name, "`", "'")+"`")
		}
		if e.Group != "" {
			meta = append(meta, "group "+escape(e.Group))
		}
		if e.Citations > 0 {
			meta = append(meta, fmt.Sprintf("cited %d more %s", e.Citations, plural(e.Citations, "time", "times")))
		}
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n\n")

		for _, f := range e.Fields {
			fmt.Fprintf(&b, "- %s: %s\n", escape(f.Key), escape(f.Value))
		}
		if len(e.Fields) > 0 {
			b.WriteString("\n")
		}
		if opts.Source && e.Source != "" {
			fence := "```"
			for strings.Contains(e.Source, fence) {
				fence += "`"
			}
			fmt.Fprintf(&b, "%swikitext\n%s\n%s\n\n", fence, e.Source, fence)
		}
	}
	return b.String()
}

// HTML renders entries as an HTML fragment through goldmark.
func HTML(entries []Entry, opts Options) (string, error) {
	opts.Anchors = true
	md := goldmark.New(
		goldmark.WithExtensions(extension.Typographer),
		goldmark.WithParserOptions(parser.WithAttribute()),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(entries, opts)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// Terminal renders entries as styled terminal text.
func Terminal(entries []Entry, opts Options, width int) (string, error) {
	opts.Anchors = false
	return ui.RenderMarkdown(Markdown(entries, opts), width)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"|", `\|`,
	"{", `\{`,
	"}", `\}`,
)

func escape(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return markdownEscaper.Replace(s)
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
