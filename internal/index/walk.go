package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/proveit/internal/template"
)

// DefaultExtensions are the file extensions Walk visits when none are given.
var DefaultExtensions = []string{".wiki", ".wikitext", ".mediawiki", ".txt"}

// WalkResult is one file visited by Walk.
type WalkResult struct {
	Path         string
	RelativePath string
	Text         string
	FileMtime    int64
	Error        error
}

// Walk visits every file under root whose extension is in exts and calls
// handler with its content. Hidden directories and node_modules are
// skipped. Read errors are
// passed to handler rather than stopping the walk.
func Walk(root string, exts []string, handler func(WalkResult) error) error {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: rel, Error: err})
		}

		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if !HasExtension(path, exts) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: rel, Error: err})
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: rel, Error: err})
		}

		return handler(WalkResult{
			Path:         path,
			RelativePath: rel,
			Text:         string(content),
			FileMtime:    info.ModTime().Unix(),
		})
	})
}

// HasExtension reports whether path ends in one of exts. A leading dot is
// optional and case is ignored.
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// ReindexOptions controls Reindex.
type ReindexOptions struct {
	Extensions []string
	// Full clears the index first and re-reads every file. Otherwise files
	// whose mtime has not moved since they were indexed are skipped.
	Full bool
}

// FileError is a file that could not be indexed.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// ReindexResult summarizes a Reindex run.
type ReindexResult struct {
	Indexed    int         `json:"indexed"`
	Skipped    int         `json:"skipped"`
	References int         `json:"references"`
	Removed    []string    `json:"removed,omitempty"`
	Errors     []FileError `json:"errors,omitempty"`
}

// Reindex brings the index up to date with the files under root.
func (d *Database) Reindex(root string, loc *template.Locator, opts ReindexOptions) (*ReindexResult, error) {
	res := &ReindexResult{}

	if opts.Full {
		if err := d.ClearAllData(); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
	}

	err := Walk(root, opts.Extensions, func(w WalkResult) error {
		if w.Error != nil {
			res.Errors = append(res.Errors, FileError{Path: w.RelativePath, Err: w.Error.Error()})
			return nil
		}
		if !opts.Full {
			indexed, err := d.GetFileMtime(w.RelativePath)
			if err != nil {
				return err
			}
			if indexed != 0 && w.FileMtime <= indexed {
				res.Skipped++
				return nil
			}
		}
		n, err := d.IndexFile(w.RelativePath, w.Text, w.FileMtime, loc)
		if err != nil {
			res.Errors = append(res.Errors, FileError{Path: w.RelativePath, Err: err.Error()})
			return nil
		}
		res.Indexed++
		res.References += n
		return nil
	})
	if err != nil {
		return res, err
	}

	removed, err := d.RemoveDeletedFiles(root)
	res.Removed = removed
	if err != nil {
		return res, err
	}

	if res.Indexed > 0 {
		if err := d.Analyze(); err != nil {
			return res, fmt.Errorf("failed to analyze index: %w", err)
		}
	}
	return res, nil
}
