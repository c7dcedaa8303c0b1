package index

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
)

const darwinArticle = `Evolution.<ref name="origin">{{Cite book |last=Darwin |title=On the [[Origin of Species]] |publisher=John Murray}}</ref> Again.<ref name="origin" /> Note.<ref>Letter from a friend</ref>`

const wallaceArticle = `Wallace.<ref name="wallace">{{cite web |url=http://example.org/wallace |title=Wallace letters |author=Alfred Wallace}}</ref>`

func locator() *template.Locator {
	return template.NewLocator(templatedata.Defaults().Registry())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDatabase(t *testing.T) {
	t.Run("initialization", func(t *testing.T) {
		db, err := OpenInMemory()
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		stats, err := db.Stats()
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if stats.ReferenceCount != 0 || stats.FileCount != 0 {
			t.Errorf("expected empty index, got %+v", stats)
		}
	})

	t.Run("index file", func(t *testing.T) {
		db, err := OpenInMemory()
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		n, err := db.IndexFile("darwin.wiki", darwinArticle, 100, locator())
		if err != nil {
			t.Fatalf("IndexFile: %v", err)
		}
		if n != 2 {
			t.Fatalf("indexed %d references, want 2", n)
		}

		stats, err := db.Stats()
		if err != nil {
			t.Fatal(err)
		}
		want := IndexStats{FileCount: 1, ReferenceCount: 2, NamedCount: 1, CitationCount: 1, ParamCount: 3}
		if *stats != want {
			t.Errorf("stats = %+v, want %+v", *stats, want)
		}

		refs, err := db.Refs(RefFilter{Name: "origin"})
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 1 {
			t.Fatalf("refs = %+v", refs)
		}
		got := refs[0]
		if got.Template != "Cite book" || got.Label != "On the Origin of Species" || got.Offset != 10 || got.Citations != 1 {
			t.Errorf("ref = %+v", got)
		}

		params, err := db.Params(got.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(params) != 3 || params[0] != [2]string{"last", "Darwin"} {
			t.Errorf("params = %v", params)
		}
	})

	t.Run("reindexing a file replaces its rows", func(t *testing.T) {
		db, err := OpenInMemory()
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		if _, err := db.IndexFile("a.wiki", darwinArticle, 100, locator()); err != nil {
			t.Fatal(err)
		}
		if _, err := db.IndexFile("a.wiki", wallaceArticle, 200, locator()); err != nil {
			t.Fatal(err)
		}
		refs, err := db.Refs(RefFilter{FilePath: "a.wiki"})
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 1 || refs[0].Name != "wallace" {
			t.Errorf("refs = %+v", refs)
		}
		mtime, _ := db.GetFileMtime("a.wiki")
		if mtime != 200 {
			t.Errorf("mtime = %d, want 200", mtime)
		}
	})

	t.Run("filter by parameter", func(t *testing.T) {
		db, err := OpenInMemory()
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		db.IndexFile("a.wiki", darwinArticle, 1, locator())
		db.IndexFile("b.wiki", wallaceArticle, 1, locator())

		refs, err := db.Refs(RefFilter{Param: "publisher", Value: "John Murray"})
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 1 || refs[0].FilePath != "a.wiki" {
			t.Errorf("refs = %+v", refs)
		}

		refs, err = db.Refs(RefFilter{Template: "cite web"})
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 1 || refs[0].FilePath != "b.wiki" {
			t.Errorf("template filter = %+v", refs)
		}
	})
}

func TestSearch(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	db.IndexFile("a.wiki", darwinArticle, 1, locator())
	db.IndexFile("b.wiki", wallaceArticle, 1, locator())

	tests := []struct {
		query string
		want  []string
	}{
		{"darwin", []string{"a.wiki"}},
		{"alfred", []string{"b.wiki"}},
		{"friend", []string{"a.wiki"}},
		{`"origin of species"`, []string{"a.wiki"}},
		{"example.org/wallace", []string{"b.wiki"}},
		{"darwin OR wallace", []string{"a.wiki", "b.wiki"}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := db.Search(tt.query, 10)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			var files []string
			for _, r := range results {
				files = append(files, r.FilePath)
			}
			sort.Strings(files)
			if strings.Join(files, ",") != strings.Join(tt.want, ",") {
				t.Errorf("files = %v, want %v", files, tt.want)
			}
		})
	}
}

func TestReindex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "darwin.wiki"), darwinArticle)
	writeFile(t, filepath.Join(root, "sub", "wallace.txt"), wallaceArticle)
	writeFile(t, filepath.Join(root, "notes.md"), darwinArticle)
	writeFile(t, filepath.Join(root, ".hidden", "x.wiki"), darwinArticle)

	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	res, err := db.Reindex(root, locator(), ReindexOptions{})
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if res.Indexed != 2 || res.References != 3 || res.Skipped != 0 {
		t.Fatalf("first run = %+v", res)
	}

	paths, _ := db.AllIndexedFilePaths()
	if strings.Join(paths, ",") != "darwin.wiki,sub/wallace.txt" {
		t.Errorf("paths = %v", paths)
	}

	res, err = db.Reindex(root, locator(), ReindexOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 0 || res.Skipped != 2 {
		t.Errorf("second run = %+v", res)
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(root, "darwin.wiki"), future, future); err != nil {
		t.Fatal(err)
	}
	stale, err := db.IsFileStale(root, "darwin.wiki")
	if err != nil || !stale {
		t.Errorf("IsFileStale = %v, %v", stale, err)
	}
	if err := os.Remove(filepath.Join(root, "sub", "wallace.txt")); err != nil {
		t.Fatal(err)
	}

	res, err = db.Reindex(root, locator(), ReindexOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 1 || len(res.Removed) != 1 || res.Removed[0] != "sub/wallace.txt" {
		t.Errorf("third run = %+v", res)
	}

	res, err = db.Reindex(root, locator(), ReindexOptions{Full: true, Extensions: []string{"md", ".wiki"}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Indexed != 2 {
		t.Errorf("full run with md = %+v", res)
	}
}

func TestOpenWithRebuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	db, rebuilt, err := OpenWithRebuild(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt {
		t.Error("new database reported as rebuilt")
	}
	if _, err := db.DB().Exec(`UPDATE meta SET value = '0' WHERE key = 'version'`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, rebuilt, err = OpenWithRebuild(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if !rebuilt {
		t.Error("old schema version was not rebuilt")
	}
}

func TestLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	lock, err := AcquireLock(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := OpenWithRebuild(dbPath); !errors.Is(err, ErrIndexLocked) {
		t.Fatalf("err = %v, want ErrIndexLocked", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatal(err)
	}

	db, _, err := OpenWithRebuild(dbPath)
	if err != nil {
		t.Fatalf("after release: %v", err)
	}
	db.Close()
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", `{label content}: ""`},
		{"darwin", "{label content}: (darwin)"},
		{"self-published", `{label content}: ("self-published")`},
		{`"on the origin" OR darwin`, `{label content}: ("on the origin" OR darwin)`},
		{`"unclosed`, `{label content}: ("unclosed")`},
	}
	for _, tt := range tests {
		if got := BuildSearchQuery(tt.in); got != tt.want {
			t.Errorf("BuildSearchQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoot(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	root, err := db.Root()
	if err != nil || root != "" {
		t.Fatalf("Root() on new index = %q, %v", root, err)
	}
	if err := db.SetRoot("/articles"); err != nil {
		t.Fatal(err)
	}
	if err := db.ClearAllData(); err != nil {
		t.Fatal(err)
	}
	if root, _ := db.Root(); root != "/articles" {
		t.Errorf("Root() = %q, want /articles (kept across ClearAllData)", root)
	}
}
