//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "Books/Dune.md",
		Title:     "Dune",
		Checksum:  "f1",
		Kind:      "book",
		Tags:      []string{"scifi"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "Arrakis is a powerful desert planet.", nil); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "Books/Dune.md" {
		t.Errorf("path = %q", results[0].Path)
	}
	if !strings.Contains(results[0].Snippet, "**powerful**") {
		t.Errorf("snippet should mark the hit: %q", results[0].Snippet)
	}
}

func TestFTS5_TitleOutranksBody(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "Books/Children of Dune.md", Title: "Children of Dune", Checksum: "1", UpdatedAt: now}, "Sequel.", nil)
	_ = db.UpsertNote(NoteRow{Path: "Books/Notes.md", Title: "Reading notes", Checksum: "2", UpdatedAt: now}, "I liked dune, dune and more dune.", nil)

	results, err := db.Search("dune", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].Path != "Books/Children of Dune.md" {
		t.Errorf("title hit should rank first: %+v", results)
	}
}

func TestFTS5_OperatorsAreLiteral(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "Movies/Dune Part Two.md", Title: "Dune: Part Two", Checksum: "1", UpdatedAt: time.Now()}, "", nil)

	for q, want := range map[string]int{
		"Dune: Part Two": 1,
		`"dune`:          1,
		"par":            1,
		"dune 2024":      0,
		"title:dune":     0,
		"dune OR":        0,
	} {
		results, err := db.Search(q, 10)
		if err != nil {
			t.Errorf("Search(%q): %v", q, err)
			continue
		}
		if len(results) != want {
			t.Errorf("Search(%q) = %d hits, want %d", q, len(results), want)
		}
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "gone.md", Checksum: "g", Tags: []string{}, UpdatedAt: time.Now()}, "vanishing content", nil)
	_ = db.DeleteNote("gone.md")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.md" {
			t.Error("deleted note still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "evo.md", Title: "Old", Checksum: "1", Tags: []string{}, UpdatedAt: now}, "original text", nil)
	_ = db.UpsertNote(NoteRow{Path: "evo.md", Title: "New", Checksum: "2", Tags: []string{}, UpdatedAt: now}, "replacement text", nil)

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
