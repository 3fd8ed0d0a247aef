// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/storage"
)

// MediaDirs are the per-kind subdirectories TestVault creates.
var MediaDirs = []string{"Books", "Movies", "Series"}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "shelfmark-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with the media
// subdirectories already in place.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	for _, d := range MediaDirs {
		if err := os.MkdirAll(filepath.Join(vaultDir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// MovieNote returns a minimal movie note in the rendered layout.
func MovieNote(title string, year int, director string) []byte {
	return fmt.Appendf(nil, "---\ntitle: %s\nyear: %d\ndirector: %s\ntype: movie\nwatched: false\n---\n\n# %s\n\n**Year:** [[%d]]  \n**Director:** [[%s]]  \n",
		title, year, director, title, year, director)
}

// BookNote returns a minimal book note in the rendered layout.
func BookNote(title string, year int, author string) []byte {
	return fmt.Appendf(nil, "---\ntitle: %s\nyear: %d\nauthor: %s\ntype: book\n---\n\n# %s\n\n**Author:** [[%s]]  \n**Year:** [[%d]]  \n",
		title, year, author, title, author, year)
}

// Seed writes data to path in store and indexes it.
func Seed(t *testing.T, store storage.Provider, db index.NoteIndex, path string, data []byte) {
	t.Helper()
	if err := store.Write(path, data); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := index.IndexFile(db, path, data, time.Time{}); err != nil {
		t.Fatalf("index %s: %v", path, err)
	}
}
