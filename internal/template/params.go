package template

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/aidanlsb/proveit/internal/braces"
)

// Key identifies a template parameter: either positional (Pos > 0) or named.
type Key struct {
	Pos  int
	Name string
}

// Positional returns the key of the n-th anonymous parameter (1-based).
func Positional(n int) Key {
	return Key{Pos: n}
}

// Named returns the key of a named parameter.
func Named(name string) Key {
	return Key{Name: strings.TrimSpace(name)}
}

// IsPositional reports whether k names an anonymous parameter.
func (k Key) IsPositional() bool {
	return k.Pos > 0
}

// String returns the key as it is addressed: "1", "2", ... for positional
// parameters and the name otherwise.
func (k Key) String() string {
	if k.Pos > 0 {
		return strconv.Itoa(k.Pos)
	}
	return k.Name
}

// Param is one parameter of a template invocation.
type Param struct {
	Key   Key
	Value string

	raw        string // segment as written between pipes; empty for added params
	eq         int    // offset of '=' in raw, -1 for positional
	added      bool
	edited     bool
	keyChanged bool
}

// Raw returns the parameter exactly as it was written, without the leading
// pipe. It is empty for parameters added after parsing.
func (p Param) Raw() string {
	return p.raw
}

func (p *Param) valueBounds() (int, int) {
	if p.eq < 0 {
		return spaceBounds(p.raw)
	}
	s, e := spaceBounds(p.raw[p.eq+1:])
	return p.eq + 1 + s, p.eq + 1 + e
}

func (p *Param) parsedValue() string {
	s, e := p.valueBounds()
	return p.raw[s:e]
}

// render returns the segment text for a parameter that came from the source,
// changing only the bytes of the key and value that were edited.
func (p *Param) render() string {
	if !p.edited && !p.keyChanged {
		return p.raw
	}
	if p.eq < 0 {
		s, e := spaceBounds(p.raw)
		// A bare value with a top-level '=' would re-parse as a named param.
		if p.keyChanged || braces.IndexTopLevel(p.Value, '=', braces.Template, braces.Link) >= 0 {
			return p.raw[:s] + p.Key.String() + "=" + p.Value + p.raw[e:]
		}
		return p.raw[:s] + p.Value + p.raw[e:]
	}

	keyPart := p.raw[:p.eq]
	if p.keyChanged {
		s, e := spaceBounds(keyPart)
		keyPart = keyPart[:s] + p.Key.String() + keyPart[e:]
	}
	valuePart := p.raw[p.eq+1:]
	if p.edited {
		s, e := spaceBounds(valuePart)
		valuePart = valuePart[:s] + p.Value + valuePart[e:]
	}
	return keyPart + "=" + valuePart
}

// Params is the ordered parameter list of a template invocation.
// Duplicate keys are kept; lookups see the last occurrence, which is the one
// MediaWiki uses.
type Params struct {
	items   []*Param
	removed bool
}

// Len returns the number of parameters, duplicates included.
func (ps *Params) Len() int {
	return len(ps.items)
}

// All returns copies of the parameters in order.
func (ps *Params) All() []Param {
	out := make([]Param, len(ps.items))
	for i, p := range ps.items {
		out[i] = *p
	}
	return out
}

// Keys returns the parameter keys in order.
func (ps *Params) Keys() []Key {
	out := make([]Key, len(ps.items))
	for i, p := range ps.items {
		out[i] = p.Key
	}
	return out
}

// Get returns the value for key ("title", "1", ...).
func (ps *Params) Get(key string) (string, bool) {
	if p := ps.find(key); p != nil {
		return p.Value, true
	}
	return "", false
}

// Has reports whether key is present.
func (ps *Params) Has(key string) bool {
	return ps.find(key) != nil
}

// Map returns key -> value. Later duplicates win.
func (ps *Params) Map() map[string]string {
	out := make(map[string]string, len(ps.items))
	for _, p := range ps.items {
		out[p.Key.String()] = p.Value
	}
	return out
}

// Set changes the value of key, or appends a new named parameter.
func (ps *Params) Set(key, value string) {
	if p := ps.find(key); p != nil {
		if p.Value != value {
			p.Value = value
			p.edited = true
		}
		return
	}
	ps.items = append(ps.items, &Param{Key: Named(key), Value: value, eq: -1, added: true})
}

// Delete removes every parameter addressed by key. It reports whether
// anything was removed.
func (ps *Params) Delete(key string) bool {
	kept := ps.items[:0]
	found := false
	for _, p := range ps.items {
		if p.Key.String() == key {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(ps.items); i++ {
		ps.items[i] = nil
	}
	ps.items = kept
	if found {
		ps.removed = true
	}
	return found
}

// Rename changes the key of every parameter addressed by from.
func (ps *Params) Rename(from, to string) bool {
	to = strings.TrimSpace(to)
	found := false
	for _, p := range ps.items {
		if p.Key.String() != from || from == to {
			continue
		}
		p.Key = Named(to)
		p.keyChanged = true
		found = true
	}
	return found
}

// Clone returns a deep copy.
func (ps *Params) Clone() Params {
	out := Params{items: make([]*Param, len(ps.items)), removed: ps.removed}
	for i, p := range ps.items {
		cp := *p
		out.items[i] = &cp
	}
	return out
}

func (ps *Params) find(key string) *Param {
	key = strings.TrimSpace(key)
	for i := len(ps.items) - 1; i >= 0; i-- {
		if ps.items[i].Key.String() == key {
			return ps.items[i]
		}
	}
	return nil
}

func (ps *Params) dirty() bool {
	if ps.removed {
		return true
	}
	for _, p := range ps.items {
		if p.added || p.edited || p.keyChanged {
			return true
		}
	}
	return false
}

// spaceBounds returns the bounds of s with surrounding whitespace removed.
// For an all-whitespace s the empty span sits before the first line break
// (or at the start), so a value written into it lands next to its key.
func spaceBounds(s string) (int, int) {
	trimmedLeft := strings.TrimLeftFunc(s, unicode.IsSpace)
	if trimmedLeft == "" {
		if i := strings.IndexAny(s, "\r\n"); i >= 0 {
			return i, i
		}
		return 0, 0
	}
	start := len(s) - len(trimmedLeft)
	end := len(strings.TrimRightFunc(s, unicode.IsSpace))
	return start, end
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeftFunc(s, unicode.IsSpace))]
}

func trailingSpace(s string) string {
	return s[len(strings.TrimRightFunc(s, unicode.IsSpace)):]
}
