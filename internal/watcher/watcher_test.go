package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aidanlsb/proveit/internal/index"
	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

const article = `Text.<ref name="a">{{Cite web |url=http://example.org |title=Example}}</ref> More.<ref name="a" />`

func locator() *template.Locator {
	return template.NewLocator(templatedata.Defaults().Registry())
}

func TestRescan(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "sub", "page.wiki")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(article), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	w, err := New(Config{Root: root, Database: db, Locator: locator()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ch := w.Rescan("sub/page.wiki")
	if ch.Err != nil {
		t.Fatalf("Rescan: %v", ch.Err)
	}
	if ch.RelativePath != "sub/page.wiki" {
		t.Errorf("relative path = %q", ch.RelativePath)
	}
	if len(ch.Snapshot.References) != 1 || len(ch.Snapshot.References[0].Citations) != 1 {
		t.Errorf("snapshot = %+v", ch.Snapshot)
	}

	refs, err := db.Refs(index.RefFilter{FilePath: "sub/page.wiki"})
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Label != "Example" {
		t.Errorf("indexed = %+v", refs)
	}

	missing := w.Rescan("nope.wiki")
	if missing.Err == nil || missing.Snapshot != nil {
		t.Errorf("missing file change = %+v", missing)
	}
}

func TestWants(t *testing.T) {
	root := t.TempDir()
	w, err := New(Config{Root: root})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "a.wiki"), true},
		{filepath.Join(root, "deep", "b.TXT"), true},
		{filepath.Join(root, "c.md"), false},
		{filepath.Join(root, ".git", "d.wiki"), false},
		{filepath.Join(root, "node_modules", "e.wiki"), false},
	}
	for _, tt := range tests {
		if got := w.wants(tt.path); got != tt.want {
			t.Errorf("wants(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	file := filepath.Join(root, "only.md")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	single, err := New(Config{Root: file})
	if err != nil {
		t.Fatal(err)
	}
	if !single.wants(file) || single.wants(filepath.Join(root, "a.wiki")) {
		t.Error("single-file watcher should only want its own file")
	}
}

func TestNewRequiresExistingRoot(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty root")
	}
	if _, err := New(Config{Root: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestStartReportsChanges(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.wiki")
	if err := os.WriteFile(path, []byte("no refs yet"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan Change, 16)
	w, err := New(Config{
		Root:          path,
		Locator:       locator(),
		DebounceDelay: 20 * time.Millisecond,
		OnChange:      func(c Change) { changes <- c },
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case ch := <-changes:
			if ch.Err != nil || ch.Snapshot == nil {
				continue
			}
			if len(ch.Snapshot.References) != 1 {
				continue
			}
			cancel()
			<-done
			return
		case <-tick.C:
			// The watch may not be registered yet; keep writing until an
			// event arrives.
			if err := os.WriteFile(path, []byte(article), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}
