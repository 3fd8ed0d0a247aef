package index

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/shelfmark/internal/parser"
	"github.com/starford/shelfmark/internal/storage"
)

// SyncStats summarises one Sync pass. Changes lists every note that was
// added, re-indexed or dropped, in path order.
type SyncStats struct {
	Indexed int
	Removed int
	Skipped int
	Failed  int
	Changes []Change
}

// Sync reconciles the index with the vault. Notes whose checksum matches
// the index are skipped; unreadable or unparsable notes are counted as
// failed and left as they were.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	onDisk, err := store.List("")
	if err != nil {
		return stats, err
	}
	indexed, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	seen := make(map[string]bool, len(onDisk))
	for _, m := range onDisk {
		seen[m.Path] = true
		prev, known := indexed[m.Path]
		if known && prev == m.Checksum {
			stats.Skipped++
			continue
		}

		data, err := store.Read(m.Path)
		if err == nil {
			err = IndexFile(db, m.Path, data, m.UpdatedAt)
		}
		if err != nil {
			stats.Failed++
			logger.Warn("sync: note skipped", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		kind := Created
		if known {
			kind = Updated
		}
		stats.Changes = append(stats.Changes, Change{Kind: kind, Path: m.Path})
	}

	for p := range indexed {
		if seen[p] {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			stats.Failed++
			logger.Warn("sync: stale entry kept", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		stats.Changes = append(stats.Changes, Change{Kind: Deleted, Path: p})
	}

	slices.SortFunc(stats.Changes, func(a, b Change) int { return cmp.Compare(a.Path, b.Path) })
	logger.Debug("sync: done",
		slog.Int("indexed", stats.Indexed),
		slog.Int("removed", stats.Removed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

// IndexFile parses a note and stores it with its links. A zero modTime
// means now.
func IndexFile(db NoteIndex, path string, data []byte, modTime time.Time) error {
	note, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertNote(NoteRow{
		Path:      path,
		Title:     note.Title,
		Kind:      note.Kind,
		Year:      note.Year,
		Watched:   note.Watched,
		Checksum:  storage.Checksum(data),
		Tags:      note.Tags,
		UpdatedAt: modTime,
	}, note.Body, note.Links)
}
