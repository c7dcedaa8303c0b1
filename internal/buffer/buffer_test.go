package buffer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/proveit/internal/atomicfile"
)

func TestMemoryReplaceKeepsCursor(t *testing.T) {
	tests := []struct {
		name       string
		selStart   int
		selEnd     int
		start, end int
		insert     string
		wantText   string
		wantStart  int
		wantEnd    int
	}{
		{name: "cursor after edit shifts", selStart: 10, selEnd: 10, start: 0, end: 3, insert: "x", wantText: "x3456789abc", wantStart: 8, wantEnd: 8},
		{name: "cursor before edit stays", selStart: 1, selEnd: 1, start: 5, end: 6, insert: "XYZ", wantText: "01234XYZ6789abc", wantStart: 1, wantEnd: 1},
		{name: "selection inside edit collapses to end", selStart: 4, selEnd: 5, start: 3, end: 7, insert: "--", wantText: "012--789abc", wantStart: 5, wantEnd: 5},
		{name: "insert at cursor", selStart: 4, selEnd: 4, start: 4, end: 4, insert: "++", wantText: "0123++456789abc", wantStart: 4, wantEnd: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory("0123456789abc")
			m.Select(tt.selStart, tt.selEnd)
			if err := m.Replace(tt.start, tt.end, tt.insert); err != nil {
				t.Fatalf("Replace: %v", err)
			}
			if m.Text() != tt.wantText {
				t.Errorf("text = %q, want %q", m.Text(), tt.wantText)
			}
			if s, e := m.Selection(); s != tt.wantStart || e != tt.wantEnd {
				t.Errorf("selection = (%d,%d), want (%d,%d)", s, e, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestMemoryReplaceOutOfRange(t *testing.T) {
	m := NewMemory("abc")
	if err := m.Replace(2, 9, "x"); err == nil {
		t.Fatal("expected error")
	}
	if m.Text() != "abc" {
		t.Fatalf("text modified on error: %q", m.Text())
	}
}

func TestSelectClamps(t *testing.T) {
	m := NewMemory("abc")
	m.Select(5, -1)
	if s, e := m.Selection(); s != 0 || e != 3 {
		t.Fatalf("selection = (%d,%d)", s, e)
	}
}

func TestFileBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.wiki")
	if err := os.WriteFile(path, []byte("Hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	text := f.Text()
	if err := f.Replace(0, 5, "Goodbye"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "Goodbye world" {
		t.Fatalf("file = %q (read %q)", data, text)
	}
}

func TestFileBufferDetectsExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.wiki")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Text()
	if err := os.WriteFile(path, []byte("v1 edited elsewhere"), 0o644); err != nil {
		t.Fatal(err)
	}
	err = f.Replace(0, 2, "v2")
	if !errors.Is(err, atomicfile.ErrChanged) {
		t.Fatalf("err = %v, want ErrChanged", err)
	}

	// A fresh read picks up the external edit and the replace goes through.
	_ = f.Text()
	if err := f.Replace(0, 2, "v2"); err != nil {
		t.Fatalf("Replace after re-read: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "v2 edited elsewhere" {
		t.Fatalf("file = %q", data)
	}
}

func TestOpenFileMissing(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error")
	}
}
