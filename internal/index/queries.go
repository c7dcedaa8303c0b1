package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// RefResult is a reference row from the index.
type RefResult struct {
	ID        int64  `json:"id"`
	FilePath  string `json:"file"`
	Number    int    `json:"number"`
	Name      string `json:"name,omitempty"`
	Group     string `json:"group,omitempty"`
	Kind      string `json:"kind"`
	Template  string `json:"template,omitempty"`
	Label     string `json:"label"`
	Offset    int    `json:"offset"`
	Citations int    `json:"citations"`
}

// SearchResult is a full-text match.
type SearchResult struct {
	RefResult
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

// RefFilter narrows Refs. Empty fields match everything.
type RefFilter struct {
	FilePath string
	Template string
	Name     string
	// Param and Value select references whose template has Param set to
	// Value.
	Param string
	Value string
}

const refColumns = `r.id, r.file_path, r.number, COALESCE(r.name, ''), COALESCE(r.ref_group, ''),
	r.kind, COALESCE(r.template, ''), r.label, r.position_start, r.citations`

func scanRef(rows *sql.Rows, extra ...any) (RefResult, error) {
	var r RefResult
	dest := append([]any{&r.ID, &r.FilePath, &r.Number, &r.Name, &r.Group,
		&r.Kind, &r.Template, &r.Label, &r.Offset, &r.Citations}, extra...)
	err := rows.Scan(dest...)
	return r, err
}

// scanRows scans all rows into a slice using the provided scanner.
func scanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Refs lists indexed references in file and document order.
func (d *Database) Refs(f RefFilter) ([]RefResult, error) {
	var where []string
	var args []any
	if f.FilePath != "" {
		where = append(where, "r.file_path = ?")
		args = append(args, f.FilePath)
	}
	if f.Template != "" {
		where = append(where, "r.template = ? COLLATE NOCASE")
		args = append(args, f.Template)
	}
	if f.Name != "" {
		where = append(where, "r.name = ?")
		args = append(args, f.Name)
	}
	if f.Param != "" {
		where = append(where, "EXISTS (SELECT 1 FROM params p WHERE p.ref_id = r.id AND p.key = ? AND p.value = ?)")
		args = append(args, f.Param, f.Value)
	}

	query := "SELECT " + refColumns + " FROM refs r"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.file_path, r.number"

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	return scanRows(rows, func(rows *sql.Rows) (RefResult, error) {
		return scanRef(rows)
	})
}

// Params returns the stored parameters of a reference in canonical order.
func (d *Database) Params(refID int64) ([][2]string, error) {
	rows, err := d.db.Query(`SELECT key, value FROM params WHERE ref_id = ? ORDER BY rowid`, refID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows, func(rows *sql.Rows) ([2]string, error) {
		var kv [2]string
		err := rows.Scan(&kv[0], &kv[1])
		return kv, err
	})
}

// Search runs a full-text query over reference labels, names, templates and
// parameter values. Results are ranked by bm25, best first.
//
// The query supports FTS5 syntax:
//   - Words: "darwin origin"
//   - Phrases: '"origin of species"'
//   - Boolean: "darwin OR wallace", "darwin NOT wallace"
//   - Prefix: "evol*"
func (d *Database) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT `+refColumns+`,
			snippet(fts_refs, 3, '»', '«', '...', 16),
			bm25(fts_refs) AS rank
		FROM fts_refs f
		JOIN refs r ON r.id = f.ref_id
		WHERE fts_refs MATCH ?
		ORDER BY rank
		LIMIT ?
	`, BuildSearchQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return scanRows(rows, func(rows *sql.Rows) (SearchResult, error) {
		var res SearchResult
		ref, err := scanRef(rows, &res.Snippet, &res.Rank)
		res.RefResult = ref
		return res, err
	})
}
