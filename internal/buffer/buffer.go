// Package buffer defines the text surface that references are edited in and
// provides in-memory and file-backed implementations.
package buffer

import (
	"fmt"
	"os"

	"github.com/aidanlsb/proveit/internal/atomicfile"
)

// Buffer is a mutable document with a selection.
//
// Text must return the current content every time it is called; callers
// compute offsets from it and apply them immediately with Replace.
type Buffer interface {
	Text() string
	// Selection returns the selected range; start == end is a cursor.
	Selection() (start, end int)
	// Replace substitutes text[start:end] and keeps the selection pointing at
	// the same content where possible.
	Replace(start, end int, text string) error
}

// Memory is a Buffer held in memory.
type Memory struct {
	text     string
	selStart int
	selEnd   int
}

// NewMemory returns a buffer holding text with the cursor at the end.
func NewMemory(text string) *Memory {
	return &Memory{text: text, selStart: len(text), selEnd: len(text)}
}

// Text implements Buffer.
func (m *Memory) Text() string { return m.text }

// Selection implements Buffer.
func (m *Memory) Selection() (int, int) { return m.selStart, m.selEnd }

// Select sets the selection. Offsets are clamped to the text.
func (m *Memory) Select(start, end int) {
	m.selStart, m.selEnd = clampRange(start, end, len(m.text))
}

// Replace implements Buffer.
func (m *Memory) Replace(start, end int, text string) error {
	if start < 0 || end < start || end > len(m.text) {
		return fmt.Errorf("replace [%d:%d] outside text of length %d", start, end, len(m.text))
	}
	m.text = m.text[:start] + text + m.text[end:]
	m.selStart = shift(m.selStart, start, end, len(text))
	m.selEnd = shift(m.selEnd, start, end, len(text))
	return nil
}

// File is a Buffer backed by a file on disk. Every call to Text re-reads the
// file; Replace refuses to write if the file changed since that read.
type File struct {
	path     string
	last     string
	loaded   bool
	selStart int
	selEnd   int
}

// OpenFile returns a buffer for path. The file must exist.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}
	if _, err := f.read(); err != nil {
		return nil, err
	}
	f.selStart, f.selEnd = len(f.last), len(f.last)
	return f, nil
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

func (f *File) read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.path, err)
	}
	f.last = string(data)
	f.loaded = true
	return f.last, nil
}

// Text implements Buffer. If the file cannot be read the last content seen
// is returned.
func (f *File) Text() string {
	if text, err := f.read(); err == nil {
		return text
	}
	return f.last
}

// Selection implements Buffer.
func (f *File) Selection() (int, int) { return f.selStart, f.selEnd }

// Select sets the selection. Offsets are clamped to the current text.
func (f *File) Select(start, end int) {
	f.selStart, f.selEnd = clampRange(start, end, len(f.Text()))
}

// Replace implements Buffer. Offsets refer to the text most recently
// returned by Text.
func (f *File) Replace(start, end int, text string) error {
	if !f.loaded {
		if _, err := f.read(); err != nil {
			return err
		}
	}
	if start < 0 || end < start || end > len(f.last) {
		return fmt.Errorf("replace [%d:%d] outside text of length %d", start, end, len(f.last))
	}
	updated := f.last[:start] + text + f.last[end:]
	if err := atomicfile.WriteIfUnchanged(f.path, []byte(f.last), []byte(updated)); err != nil {
		return err
	}
	f.last = updated
	f.selStart = shift(f.selStart, start, end, len(text))
	f.selEnd = shift(f.selEnd, start, end, len(text))
	return nil
}

// shift moves offset to account for [start:end] being replaced by n bytes.
// Offsets inside the replaced range move to its new end.
func shift(offset, start, end, n int) int {
	switch {
	case offset <= start:
		return offset
	case offset >= end:
		return offset + n - (end - start)
	default:
		return start + n
	}
}

func clampRange(start, end, size int) (int, int) {
	clamp := func(n int) int {
		if n < 0 {
			return 0
		}
		if n > size {
			return size
		}
		return n
	}
	start, end = clamp(start), clamp(end)
	if end < start {
		start, end = end, start
	}
	return start, end
}
