// Package watcher re-scans wikitext files when they change on disk.
//
// It backs `proveit watch`: a single file is re-scanned and reported on each
// save, a directory is kept in sync with the reference index.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/proveit/internal/index"
	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/template"
)

// Change describes one processed file event.
type Change struct {
	Path         string
	RelativePath string
	// Snapshot is the fresh scan of the file. It is nil when the file was
	// removed or could not be read.
	Snapshot *refs.Snapshot
	Removed  bool
	Err      error
}

// Watcher monitors a file or directory tree and re-scans changed files.
type Watcher struct {
	root       string
	single     bool
	db         *index.Database
	loc        *template.Locator
	extensions []string

	debounceDelay time.Duration
	debug         bool

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex

	onChange func(Change)
}

// Config holds configuration options for the Watcher.
type Config struct {
	// Root is a single file or a directory watched recursively.
	Root string
	// Database, when set, is updated with every change.
	Database      *index.Database
	Locator       *template.Locator
	Extensions    []string      // Default: index.DefaultExtensions
	DebounceDelay time.Duration // Default: 100ms
	Debug         bool
	OnChange      func(Change)
}

// New creates a Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", cfg.Root, err)
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = index.DefaultExtensions
	}

	return &Watcher{
		root:          root,
		single:        !info.IsDir(),
		db:            cfg.Database,
		loc:           cfg.Locator,
		extensions:    exts,
		debounceDelay: debounce,
		debug:         cfg.Debug,
		pending:       make(map[string]time.Time),
		onChange:      cfg.OnChange,
	}, nil
}

// Start begins watching. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if w.single {
		// Editors often save by renaming a temp file over the original, which
		// drops a watch on the file itself. Watch the directory instead.
		if err := w.fsWatcher.Add(filepath.Dir(w.root)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", w.root, err)
		}
	} else if err := w.addWatchRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	w.logDebug("Watching: %s", w.root)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logDebug("Watcher error: %v", err)
		}
	}
}

// Rescan reads and scans a single file, updating the index when one is
// configured. It can be called without starting the watcher.
func (w *Watcher) Rescan(path string) Change {
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.base(), path)
	}
	ch := Change{Path: path, RelativePath: w.relative(path)}

	stat, err := os.Stat(path)
	if err != nil {
		ch.Err = fmt.Errorf("failed to stat file: %w", err)
		return ch
	}
	content, err := os.ReadFile(path)
	if err != nil {
		ch.Err = fmt.Errorf("failed to read file: %w", err)
		return ch
	}

	ch.Snapshot = refs.Scan(string(content), w.loc)
	if w.db != nil {
		if _, err := w.db.IndexFile(ch.RelativePath, string(content), stat.ModTime().Unix(), w.loc); err != nil {
			ch.Err = fmt.Errorf("failed to index file: %w", err)
		}
	}
	return ch
}

func (w *Watcher) remove(path string) Change {
	ch := Change{Path: path, RelativePath: w.relative(path), Removed: true}
	if w.db != nil {
		ch.Err = w.db.RemoveFile(ch.RelativePath)
	}
	return ch
}

// base is the directory relative paths are computed from.
func (w *Watcher) base() string {
	if w.single {
		return filepath.Dir(w.root)
	}
	return w.root
}

func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.base(), path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) wants(path string) bool {
	if w.single {
		return path == w.root
	}
	if w.shouldIgnore(path) {
		return false
	}
	return index.HasExtension(path, w.extensions)
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if !w.wants(path) {
		if !w.single && event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !w.shouldIgnore(path) {
				w.addWatchRecursive(path)
			}
		}
		return
	}

	w.logDebug("Event: %s %s", event.Op, path)

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.schedule(path)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename-over save shows up as Rename followed by Create; the
		// debounced rescan sees the new file if it is back by then.
		w.schedule(path)
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending handles files whose last event is older than the debounce
// delay.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		var ch Change
		if _, err := os.Stat(path); os.IsNotExist(err) {
			ch = w.remove(path)
			w.logDebug("Removed: %s", path)
		} else {
			ch = w.Rescan(path)
			if ch.Err != nil {
				w.logDebug("Failed to rescan %s: %v", path, ch.Err)
			} else {
				w.logDebug("Rescanned: %s (%d references)", path, len(ch.Snapshot.References))
			}
		}
		if w.onChange != nil {
			w.onChange(ch)
		}
	}
}

func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.root && w.shouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logDebug("Failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if isIgnoredName(part) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	return isIgnoredName(filepath.Base(path))
}

// isIgnoredName matches hidden entries and node_modules, the same set
// index.Walk skips.
func isIgnoredName(name string) bool {
	return (strings.HasPrefix(name, ".") && name != "." && name != "..") || name == "node_modules"
}

func (w *Watcher) logDebug(format string, args ...any) {
	if w.debug {
		fmt.Fprintf(os.Stderr, "[proveit-watcher] "+format+"\n", args...)
	}
}
