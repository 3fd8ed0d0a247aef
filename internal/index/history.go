package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/shelfmark/internal/models"
)

// RecordLookup appends l to the lookup history. A missing ID or timestamp
// is filled in.
func (db *DB) RecordLookup(l models.Lookup) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	attempts, err := json.Marshal(l.Attempts)
	if err != nil {
		return fmt.Errorf("index: encode attempts: %w", err)
	}
	if l.Attempts == nil {
		attempts = []byte("[]")
	}
	_, err = db.conn.Exec(`
		INSERT INTO lookups (id, query, kind, year, backend, status, strategy, note_path, error, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.Query, l.Kind, l.Year, l.Backend, l.Status, l.Strategy, l.NotePath, l.Error, string(attempts), l.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: record lookup: %w", err)
	}
	return nil
}

// RecentLookups returns the newest history entries first.
func (db *DB) RecentLookups(limit int) ([]models.Lookup, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, query, kind, year, backend, status, strategy, note_path, error, attempts, created_at
		FROM lookups
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("index: recent lookups: %w", err)
	}
	defer rows.Close()

	var out []models.Lookup
	for rows.Next() {
		var (
			l        models.Lookup
			attempts string
		)
		if err := rows.Scan(&l.ID, &l.Query, &l.Kind, &l.Year, &l.Backend, &l.Status, &l.Strategy,
			&l.NotePath, &l.Error, &attempts, &l.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(attempts), &l.Attempts)
		out = append(out, l)
	}
	return out, rows.Err()
}
