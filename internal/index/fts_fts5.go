//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// notes_fts weights titles above years, tags and bodies. People and genres
// live in the body as wikilinks, so they are searchable too.
func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			path UNINDEXED,
			title,
			year,
			tags,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, n NoteRow, body string) error {
	ftsDelete(tx, n.Path)
	_, err := tx.Exec(`INSERT INTO notes_fts (path, title, year, tags, body) VALUES (?, ?, ?, ?, ?)`,
		n.Path, n.Title, n.Year, strings.Join(n.Tags, " "), body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE path = ?`, path)
}

// Search ranks notes matching every word of query, titles first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	expr := matchExpr(query)
	if expr == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT notes_fts.path,
		       notes_fts.title,
		       coalesce(notes.kind, ''),
		       coalesce(notes.year, ''),
		       snippet(notes_fts, 4, '**', '**', '…', 24)
		FROM notes_fts
		LEFT JOIN notes ON notes.path = notes_fts.path
		WHERE notes_fts MATCH ?
		ORDER BY bm25(notes_fts, 0, 10.0, 2.0, 3.0, 1.0)
		LIMIT ?
	`, expr, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Kind, &r.Year, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
