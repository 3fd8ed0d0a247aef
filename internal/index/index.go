package index

import "github.com/starford/shelfmark/internal/models"

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string, links []string) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	GetNote(path string) (*NoteRow, error)
	ListNotes(f ListFilter) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]string, error)
	AllChecksums() (map[string]string, error)
	RecordLookup(l models.Lookup) error
	RecentLookups(limit int) ([]models.Lookup, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
