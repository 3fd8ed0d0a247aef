package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/shelfmark/internal/apperr"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Title     string
	Kind      string
	Year      string
	Watched   *bool
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Kind    string
	Year    string
	Snippet string
}

// ListFilter narrows ListNotes.
type ListFilter struct {
	Limit  int
	Offset int
	Kind   string // book, movie or tv; empty lists everything
	Sort   string // "title", "year" or "updated" (default)
	// Unwatched keeps only screen notes whose watched flag is false.
	Unwatched bool
}

// UpsertNote inserts or replaces a note, its FTS entry, and links within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(n.Tags)
	if n.Tags == nil {
		tagsJSON = []byte("[]")
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, kind, year, watched, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			kind       = excluded.kind,
			year       = excluded.year,
			watched    = excluded.watched,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.Path, n.Title, n.Kind, n.Year, nullBool(n.Watched), n.Checksum, string(tagsJSON), body, n.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// No-op when the FTS5 tag is absent.
	if err := ftsUpsert(tx, n, body); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, 'inline')`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

const noteColumns = `path, title, kind, year, watched, checksum, tags, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (NoteRow, error) {
	var (
		n       NoteRow
		watched sql.NullBool
		tags    string
	)
	if err := s.Scan(&n.Path, &n.Title, &n.Kind, &n.Year, &watched, &n.Checksum, &tags, &n.UpdatedAt); err != nil {
		return NoteRow{}, err
	}
	if watched.Valid {
		w := watched.Bool
		n.Watched = &w
	}
	_ = json.Unmarshal([]byte(tags), &n.Tags)
	return n, nil
}

// GetNote returns the indexed row for path.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	n, err := scanNote(db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &n, nil
}

// ListNotes returns one page of notes and the total number matching f.
func (db *DB) ListNotes(f ListFilter) ([]NoteRow, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	where := ` WHERE 1=1`
	var args []any
	if f.Kind != "" {
		where += ` AND kind = ?`
		args = append(args, f.Kind)
	}
	if f.Unwatched {
		where += ` AND watched = 0`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	order := ` ORDER BY updated_at DESC, path`
	switch f.Sort {
	case "title":
		order = ` ORDER BY title COLLATE NOCASE, path`
	case "year":
		order = ` ORDER BY year DESC, title COLLATE NOCASE`
	}
	rows, err := db.conn.Query(`SELECT `+noteColumns+` FROM notes`+where+order+` LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns all note paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
