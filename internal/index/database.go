// Package index keeps a SQLite index of the references found in a tree of
// wikitext files.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/proveit/internal/export"
	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/template"
)

// Database is the SQLite database handle.
type Database struct {
	db *sql.DB
}

// ErrIndexLocked indicates another process is rebuilding the index.
var ErrIndexLocked = errors.New("index is locked for rebuild")

// DB returns the underlying sql.DB for advanced queries.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Open opens or creates the database at dbPath.
func Open(dbPath string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// OpenWithRebuild opens the database, recreating it when its schema version
// does not match. It returns (database, wasRebuilt, error).
func OpenWithRebuild(dbPath string) (*Database, bool, error) {
	lock, err := AcquireLock(dbPath)
	if err != nil {
		return nil, false, err
	}
	defer lock.Release()

	if _, err := os.Stat(dbPath); err == nil {
		db, err := sql.Open("sqlite", dbPath)
		if err == nil {
			compatible := isSchemaCompatible(db)
			db.Close()
			if !compatible {
				if err := removeDatabaseFiles(dbPath); err != nil {
					return nil, false, err
				}
				fresh, err := Open(dbPath)
				return fresh, true, err
			}
		}
	}

	db, err := Open(dbPath)
	return db, false, err
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.db.Close()
}

// Analyze updates query planner statistics. Call it after bulk indexing.
func (d *Database) Analyze() error {
	_, err := d.db.Exec("ANALYZE")
	return err
}

func removeDatabaseFiles(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// CurrentDBVersion is the current database schema version.
const CurrentDBVersion = 1

func isSchemaCompatible(db *sql.DB) bool {
	var version string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version); err != nil {
		return false
	}
	return version == fmt.Sprintf("%d", CurrentDBVersion)
}

func (d *Database) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		-- One row per indexed file
		CREATE TABLE IF NOT EXISTS files (
			file_path TEXT PRIMARY KEY,
			file_mtime INTEGER,
			indexed_at INTEGER
		);

		-- References in document order
		CREATE TABLE IF NOT EXISTS refs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			number INTEGER NOT NULL,
			name TEXT,
			ref_group TEXT,
			kind TEXT NOT NULL,
			template TEXT,
			label TEXT NOT NULL,
			content TEXT NOT NULL,
			position_start INTEGER NOT NULL,
			citations INTEGER NOT NULL DEFAULT 0
		);

		-- Template parameters of template-backed references
		CREATE TABLE IF NOT EXISTS params (
			ref_id INTEGER NOT NULL,
			file_path TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_refs_file ON refs(file_path);
		CREATE INDEX IF NOT EXISTS idx_refs_name ON refs(name) WHERE name IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_refs_template ON refs(template);
		CREATE INDEX IF NOT EXISTS idx_params_ref ON params(ref_id);
		CREATE INDEX IF NOT EXISTS idx_params_key_value ON params(key, value);

		CREATE VIRTUAL TABLE IF NOT EXISTS fts_refs USING fts5(
			ref_id UNINDEXED,
			file_path UNINDEXED,
			label,
			content,
			tokenize='porter unicode61'
		);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", CurrentDBVersion))
	if err != nil {
		return fmt.Errorf("failed to set database version: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

var filePathTables = []string{"files", "refs", "params", "fts_refs"}

func deleteByFilePath(e execer, filePath string) error {
	for _, table := range filePathTables {
		if _, err := e.Exec("DELETE FROM "+table+" WHERE file_path = ?", filePath); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

// IndexFile scans text and replaces everything stored for filePath.
// fileMtime is a Unix timestamp; 0 means now.
func (d *Database) IndexFile(filePath, text string, fileMtime int64, loc *template.Locator) (int, error) {
	snap := refs.Scan(text, loc)
	entries := export.Entries(snap, loc.Registry())

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := deleteByFilePath(tx, filePath); err != nil {
		return 0, err
	}

	now := time.Now().Unix()
	if fileMtime <= 0 {
		fileMtime = now
	}
	if _, err := tx.Exec(`INSERT INTO files (file_path, file_mtime, indexed_at) VALUES (?, ?, ?)`,
		filePath, fileMtime, now); err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}

	for i, e := range entries {
		r := snap.References[i]
		res, err := tx.Exec(`
			INSERT INTO refs (file_path, number, name, ref_group, kind, template, label, content, position_start, citations)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			filePath, e.Number, nullable(e.Name), nullable(e.Group), e.Kind, nullable(e.Template),
			e.Label, r.Content, r.Span().Start, e.Citations)
		if err != nil {
			return 0, fmt.Errorf("insert reference %d: %w", e.Number, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}

		searchable := []string{e.Name, e.Template}
		for _, f := range e.Fields {
			if _, err := tx.Exec(`INSERT INTO params (ref_id, file_path, key, value) VALUES (?, ?, ?, ?)`,
				id, filePath, f.Key, f.Value); err != nil {
				return 0, fmt.Errorf("insert parameter %s: %w", f.Key, err)
			}
			searchable = append(searchable, f.Value)
		}
		if r.Template == nil {
			searchable = append(searchable, r.Content)
		}

		if _, err := tx.Exec(`INSERT INTO fts_refs (ref_id, file_path, label, content) VALUES (?, ?, ?, ?)`,
			id, filePath, e.Label, strings.Join(searchable, "\n")); err != nil {
			return 0, fmt.Errorf("insert search content: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// RemoveFile removes all data for a file.
func (d *Database) RemoveFile(filePath string) error {
	return deleteByFilePath(d.db, filePath)
}

// ClearAllData removes all indexed data. It is used for a full reindex.
func (d *Database) ClearAllData() error {
	for _, table := range filePathTables {
		if _, err := d.db.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return nil
}

// SetRoot records the directory the indexed file paths are relative to.
func (d *Database) SetRoot(root string) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('root', ?)`, root)
	return err
}

// Root returns the directory recorded by SetRoot, or "" if none.
func (d *Database) Root() (string, error) {
	var root string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key = 'root'`).Scan(&root)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return root, err
}

// AllIndexedFilePaths returns every file path in the index.
func (d *Database) AllIndexedFilePaths() ([]string, error) {
	rows, err := d.db.Query(`SELECT file_path FROM files ORDER BY file_path`)
	if err != nil {
		return nil, err
	}
	return scanRows(rows, func(rows *sql.Rows) (string, error) {
		var path string
		err := rows.Scan(&path)
		return path, err
	})
}

// RemoveDeletedFiles drops index entries for files that no longer exist
// under root. It returns the removed paths.
func (d *Database) RemoveDeletedFiles(root string) ([]string, error) {
	indexed, err := d.AllIndexedFilePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get indexed paths: %w", err)
	}

	var removed []string
	for _, rel := range indexed {
		if _, err := os.Stat(filepath.Join(root, rel)); !os.IsNotExist(err) {
			continue
		}
		if err := d.RemoveFile(rel); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", rel, err)
		}
		removed = append(removed, rel)
	}
	return removed, nil
}

// IndexStats contains index statistics.
type IndexStats struct {
	FileCount      int `json:"files"`
	ReferenceCount int `json:"references"`
	NamedCount     int `json:"named"`
	CitationCount  int `json:"citations"`
	ParamCount     int `json:"params"`
}

// Stats returns statistics about the index.
func (d *Database) Stats() (*IndexStats, error) {
	var stats IndexStats
	if err := d.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&stats.FileCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow(`
		SELECT COUNT(*), COUNT(name), COALESCE(SUM(citations), 0) FROM refs
	`).Scan(&stats.ReferenceCount, &stats.NamedCount, &stats.CitationCount); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM params").Scan(&stats.ParamCount); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetFileMtime returns the indexed mtime for a file, or 0 if not indexed.
func (d *Database) GetFileMtime(filePath string) (int64, error) {
	var mtime sql.NullInt64
	err := d.db.QueryRow(`SELECT file_mtime FROM files WHERE file_path = ?`, filePath).Scan(&mtime)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !mtime.Valid {
		return 0, nil
	}
	return mtime.Int64, nil
}

// IsFileStale reports whether the file's mtime is newer than the indexed one.
// Files missing from the index or from disk are stale.
func (d *Database) IsFileStale(root, filePath string) (bool, error) {
	indexed, err := d.GetFileMtime(filePath)
	if err != nil {
		return false, err
	}
	if indexed == 0 {
		return true, nil
	}

	stat, err := os.Stat(filepath.Join(root, filePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return stat.ModTime().Unix() > indexed, nil
}
