package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aidanlsb/proveit/internal/buffer"
	"github.com/aidanlsb/proveit/internal/edit"
	"github.com/aidanlsb/proveit/internal/export"
	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

// document is a wikitext file opened for reading or editing.
type document struct {
	path   string
	buf    *buffer.File
	editor *edit.Editor
}

func openDocument(path string) (*document, error) {
	buf, err := buffer.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &document{path: path, buf: buf, editor: edit.New(buf, locator)}, nil
}

// openDocumentOrFail opens path, reporting failures with the right code.
// A nil document with a nil error means the error was printed as JSON.
func openDocumentOrFail(path string) (*document, error) {
	doc, err := openDocument(path)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, handleError(ErrFileNotFound, err, "Check the file path")
	}
	return nil, handleError(ErrFileReadError, err, "")
}

func (d *document) scan() *refs.Snapshot {
	return d.editor.Scan()
}

// findReference resolves a reference selector: its 1-based number in
// document order or its name.
func findReference(snap *refs.Snapshot, sel string) (*refs.Reference, int, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil, 0, fmt.Errorf("empty reference selector")
	}

	if n, err := strconv.Atoi(sel); err == nil {
		if r, ok := snap.Reference(n); ok {
			return r, n, nil
		}
		// A numeric name is still a valid name.
		if r, ok := snap.ByName(sel); ok {
			return r, numberOf(snap, r), nil
		}
		return nil, 0, fmt.Errorf("no reference %d (the file has %d)", n, len(snap.References))
	}

	if r, ok := snap.ByName(sel); ok {
		return r, numberOf(snap, r), nil
	}
	return nil, 0, fmt.Errorf("no reference named %q", sel)
}

func numberOf(snap *refs.Snapshot, r *refs.Reference) int {
	for i, candidate := range snap.References {
		if candidate == r {
			return i + 1
		}
	}
	return 0
}

// findReferenceOrFail wraps findReference with error reporting. A nil
// reference with a nil error means the error was printed as JSON.
func findReferenceOrFail(snap *refs.Snapshot, sel string) (*refs.Reference, int, error) {
	r, n, err := findReference(snap, sel)
	if err != nil {
		return nil, 0, handleErrorWithDetails(ErrRefNotFound, err.Error(),
			"Run 'proveit list <file>' to see reference numbers and names",
			map[string]any{"selector": sel, "references": len(snap.References)})
	}
	return r, n, nil
}

// refLabel is how a reference is named in messages: "2 (origin)" or "2".
func refLabel(n int, r *refs.Reference) string {
	if r.Name != "" {
		return fmt.Sprintf("%d (%s)", n, r.Name)
	}
	return strconv.Itoa(n)
}

// refView is the JSON shape of one reference.
type refView struct {
	export.Entry
	Offset int `json:"offset"`
}

func viewOf(snap *refs.Snapshot, r *refs.Reference, n int) refView {
	one := &refs.Snapshot{Text: snap.Text, References: []*refs.Reference{r}}
	entry := export.Entries(one, registry)[0]
	entry.Number = n
	return refView{Entry: entry, Offset: r.Span().Start}
}

type assignment struct {
	Key   string
	Value string
}

// parseAssignments parses key=value arguments. Keys are trimmed; values are
// kept as given, so "key=" assigns the empty string.
func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: use key=value", arg)
		}
		out = append(out, assignment{Key: key, Value: value})
	}
	return out, nil
}

// resolveTemplate returns the canonical name and metadata for a template
// name or alias.
func resolveTemplate(name string) (string, *templatedata.Metadata, error) {
	canonical, ok := registry.Resolve(name)
	if !ok {
		if suggestions := registry.Suggest(name, 3); len(suggestions) > 0 {
			return "", nil, fmt.Errorf("unknown template %q (did you mean %s?)", name, strings.Join(suggestions, ", "))
		}
		return "", nil, fmt.Errorf("unknown template %q", name)
	}
	meta, _ := registry.Lookup(canonical)
	return canonical, meta, nil
}

// formatFor picks the layout for a rebuilt template: the configured format,
// else the template's own preference.
func formatFor(meta *templatedata.Metadata) templatedata.Format {
	if f := strings.TrimSpace(getConfig().Format); f != "" {
		return templatedata.ParseFormat(f)
	}
	if meta != nil {
		return meta.Format()
	}
	return templatedata.FormatInline
}

// selectRange validates --at/--to offsets against text. A negative at means
// the end of the text; a negative to means at.
func selectRange(text string, at, to int) (int, int, error) {
	if at < 0 {
		at = len(text)
	}
	if to < 0 {
		to = at
	}
	if at > len(text) || to > len(text) || to < at {
		return 0, 0, fmt.Errorf("range [%d:%d] is outside the text (length %d)", at, to, len(text))
	}
	return at, to, nil
}
