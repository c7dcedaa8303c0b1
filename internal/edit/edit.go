// Package edit applies reference changes to a buffer.
//
// Every operation reads the buffer, re-locates its targets in that text by
// (source, ordinal) and writes all of its changes as one replacement. Targets
// come from an earlier refs.Scan; if the text changed so that a target can no
// longer be found, the operation fails with ErrNotFound and writes nothing.
package edit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aidanlsb/proveit/internal/buffer"
	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/slugs"
	"github.com/aidanlsb/proveit/internal/template"
)

var (
	// ErrNotFound means a target is no longer present in the buffer.
	ErrNotFound = errors.New("reference not found in current text")
	// ErrUnnamed means a citation was requested for a reference without a
	// name and no name was given.
	ErrUnnamed = errors.New("reference has no name")
	// ErrOutOfRange means the selection lies outside the text.
	ErrOutOfRange = errors.New("selection out of range")
	// ErrOverlap means two changes of one operation touch the same text,
	// e.g. citing a reference from inside itself.
	ErrOverlap = errors.New("changes overlap")
)

// Result describes the replacement an operation made.
type Result struct {
	// Start is the offset where the replacement begins, in old and new text.
	Start    int    `json:"start"`
	Removed  string `json:"removed"`
	Inserted string `json:"inserted"`
	// Name is the reference name used, when the operation involved one.
	Name string `json:"name,omitempty"`
}

// Editor ties a buffer to the locator used to recognize templates in it.
type Editor struct {
	buf buffer.Buffer
	loc *template.Locator
}

// New returns an Editor. loc may be nil if templates need not be recognized.
func New(buf buffer.Buffer, loc *template.Locator) *Editor {
	return &Editor{buf: buf, loc: loc}
}

// Scan returns a snapshot of the buffer's current text.
func (e *Editor) Scan() *refs.Snapshot {
	return refs.Scan(e.buf.Text(), e.loc)
}

// Update writes r back. If r was renamed, every citation linked to it is
// renamed in the same replacement.
func (e *Editor) Update(r *refs.Reference) (*Result, error) {
	text := e.buf.Text()

	at, ok := r.Span().Locate(text)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, r.Span().Source)
	}
	changes := []change{{start: at, end: at + len(r.Span().Source), text: r.String()}}

	if r.Name != r.OriginalName() && r.OriginalName() != "" {
		if r.Name == "" && len(r.Citations) > 0 {
			return nil, fmt.Errorf("%w: %d citations still use %q", ErrUnnamed, len(r.Citations), r.OriginalName())
		}
		for _, c := range r.Citations {
			cat, ok := c.Span().Locate(text)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrNotFound, c.Span().Source)
			}
			c.Name = r.Name
			changes = append(changes, change{start: cat, end: cat + len(c.Span().Source), text: c.String()})
		}
	}

	res, err := e.apply(text, changes)
	if err != nil {
		return nil, err
	}
	res.Name = r.Name
	return res, nil
}

// Remove deletes r and every citation linked to it.
func (e *Editor) Remove(r *refs.Reference) (*Result, error) {
	text := e.buf.Text()

	var changes []change
	for _, item := range append([]refs.Item{r}, citationItems(r.Citations)...) {
		at, ok := item.Span().Locate(text)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, item.Span().Source)
		}
		changes = append(changes, change{start: at, end: at + len(item.Span().Source)})
	}
	return e.apply(text, changes)
}

// CiteOptions controls Cite.
type CiteOptions struct {
	// Name is used when the reference has no name yet.
	Name string
	// AutoName derives a name from the reference label when it has none and
	// Name is empty.
	AutoName bool
}

// Cite replaces the selection with a citation of r. An unnamed reference is
// named first, in the same replacement.
func (e *Editor) Cite(r *refs.Reference, opts CiteOptions) (*Result, error) {
	text := e.buf.Text()
	start, end, err := e.selection(text)
	if err != nil {
		return nil, err
	}

	var changes []change
	name := r.Name
	if name == "" {
		name = strings.TrimSpace(opts.Name)
		if name == "" && opts.AutoName {
			names := refs.Scan(text, nil).Names()
			name = slugs.RefName(r.Label(e.loc.Registry()), func(s string) bool { return names[s] })
		}
		if name == "" {
			return nil, ErrUnnamed
		}

		at, ok := r.Span().Locate(text)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, r.Span().Source)
		}
		r.Name = name
		changes = append(changes, change{start: at, end: at + len(r.Span().Source), text: r.String()})
	}

	citation := refs.NewCitation(name, r.Group)
	changes = append(changes, change{start: start, end: end, text: citation.String()})

	res, err := e.apply(text, changes)
	if err != nil {
		return nil, err
	}
	res.Name = name
	return res, nil
}

// Insert replaces the selection with r.
func (e *Editor) Insert(r *refs.Reference) (*Result, error) {
	text := e.buf.Text()
	start, end, err := e.selection(text)
	if err != nil {
		return nil, err
	}
	res, err := e.apply(text, []change{{start: start, end: end, text: r.String()}})
	if err != nil {
		return nil, err
	}
	res.Name = r.Name
	return res, nil
}

// NormalizeAll rewrites aliased parameter names to canonical ones in every
// template reference, as one replacement. It returns the number of references
// changed; zero changes writes nothing.
func (e *Editor) NormalizeAll() (int, *Result, error) {
	if e.loc == nil || e.loc.Registry() == nil {
		return 0, nil, nil
	}
	text := e.buf.Text()
	snap := refs.Scan(text, e.loc)

	var changes []change
	for _, r := range snap.References {
		if r.Template == nil {
			continue
		}
		meta, ok := e.loc.Registry().Lookup(r.Template.Name)
		if !ok {
			continue
		}
		r.Template.Normalize(meta)
		if !r.Modified() {
			continue
		}
		at, ok := r.Span().Locate(text)
		if !ok {
			return 0, nil, fmt.Errorf("%w: %q", ErrNotFound, r.Span().Source)
		}
		changes = append(changes, change{start: at, end: at + len(r.Span().Source), text: r.String()})
	}
	if len(changes) == 0 {
		return 0, nil, nil
	}
	res, err := e.apply(text, changes)
	if err != nil {
		return 0, nil, err
	}
	return len(changes), res, nil
}

func (e *Editor) selection(text string) (int, int, error) {
	start, end := e.buf.Selection()
	if start < 0 || end < start || end > len(text) {
		return 0, 0, fmt.Errorf("%w: [%d:%d] in text of length %d", ErrOutOfRange, start, end, len(text))
	}
	return start, end, nil
}

type change struct {
	start, end int
	text       string
}

// apply merges changes into one replacement spanning all of them.
func (e *Editor) apply(text string, changes []change) (*Result, error) {
	if len(changes) == 0 {
		return &Result{}, nil
	}
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].start != changes[j].start {
			return changes[i].start < changes[j].start
		}
		return changes[i].end < changes[j].end
	})
	for i := 1; i < len(changes); i++ {
		if changes[i].start < changes[i-1].end {
			return nil, ErrOverlap
		}
	}

	lo := changes[0].start
	hi := changes[len(changes)-1].end
	var b strings.Builder
	pos := lo
	for _, c := range changes {
		b.WriteString(text[pos:c.start])
		b.WriteString(c.text)
		pos = c.end
	}
	b.WriteString(text[pos:hi])

	inserted := b.String()
	if err := e.buf.Replace(lo, hi, inserted); err != nil {
		return nil, err
	}
	return &Result{Start: lo, Removed: text[lo:hi], Inserted: inserted}, nil
}

func citationItems(cs []*refs.Citation) []refs.Item {
	out := make([]refs.Item, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}
