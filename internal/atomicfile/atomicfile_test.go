package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.wiki")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []byte("new"), 0); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Fatalf("content = %q", got)
	}
	st, _ := os.Stat(path)
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", st.Mode().Perm())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteIfUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.wiki")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := WriteIfUnchanged(path, []byte("v1"), []byte("v2")); err != nil {
		t.Fatalf("expected write to succeed: %v", err)
	}
	err := WriteIfUnchanged(path, []byte("v1"), []byte("v3"))
	if !errors.Is(err, ErrChanged) {
		t.Fatalf("err = %v, want ErrChanged", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "v2" {
		t.Fatalf("content = %q, want v2", got)
	}

	missing := filepath.Join(t.TempDir(), "new.wiki")
	if err := WriteIfUnchanged(missing, nil, []byte("x")); err != nil {
		t.Fatalf("missing file should match empty expected: %v", err)
	}
}
