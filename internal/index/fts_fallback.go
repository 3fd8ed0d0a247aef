//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Without FTS5 the notes table itself is searched with LIKE.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _ NoteRow, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search returns notes containing every word of query in their title, tags,
// year or body. Title hits sort first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var (
		where []string
		args  []any
	)
	for _, t := range terms {
		where = append(where, `(title LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\' OR year = ? OR body LIKE ? ESCAPE '\')`)
		p := likePattern(t)
		args = append(args, p, p, t, p)
	}
	args = append(args, likePattern(terms[0]), limit)

	rows, err := db.conn.Query(`
		SELECT path, title, kind, year, substr(body, 1, 200)
		FROM notes
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY (title LIKE ? ESCAPE '\') DESC, title COLLATE NOCASE
		LIMIT ?
	`, args...)
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
