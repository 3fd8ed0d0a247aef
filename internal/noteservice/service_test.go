package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/storage"
	"github.com/starford/shelfmark/internal/testutil"
)

func testService(t *testing.T) (*Service, *storage.FS, *index.DB) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	return NewService(store, db), store, db
}

func TestGetNote_Backlinks(t *testing.T) {
	svc, store, db := testService(t)
	testutil.Seed(t, store, db, "Movies/Inception.md", testutil.MovieNote("Inception", 2010, "Christopher Nolan"))
	testutil.Seed(t, store, db, "Christopher Nolan.md", []byte("# Christopher Nolan\n"))

	ctx := context.Background()
	note, err := svc.GetNote(ctx, "Christopher Nolan.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(note.Backlinks) != 1 || note.Backlinks[0] != "Movies/Inception.md" {
		t.Errorf("backlinks = %v", note.Backlinks)
	}

	movie, err := svc.GetNote(ctx, "Movies/Inception.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if movie.Kind != "movie" || movie.Year != "2010" {
		t.Errorf("kind/year = %q/%q", movie.Kind, movie.Year)
	}
	if movie.Watched == nil || *movie.Watched {
		t.Errorf("watched = %v, want false", movie.Watched)
	}
	if movie.Checksum != storage.Checksum([]byte(movie.Content)) {
		t.Error("checksum does not match content")
	}
}

func TestGetNote_Missing(t *testing.T) {
	svc, _, _ := testService(t)
	if _, err := svc.GetNote(context.Background(), "Movies/Nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkWatched(t *testing.T) {
	svc, store, db := testService(t)
	testutil.Seed(t, store, db, "Movies/Inception.md", testutil.MovieNote("Inception", 2010, "Christopher Nolan"))
	ctx := context.Background()

	before, _ := svc.GetNote(ctx, "Movies/Inception.md")

	if _, err := svc.MarkWatched(ctx, "Movies/Inception.md", "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("stale checksum: err = %v, want ErrConflict", err)
	}

	note, err := svc.MarkWatched(ctx, "Movies/Inception.md", before.Checksum)
	if err != nil {
		t.Fatalf("MarkWatched: %v", err)
	}
	if note.Watched == nil || !*note.Watched {
		t.Errorf("watched = %v, want true", note.Watched)
	}
	if note.Checksum == before.Checksum {
		t.Error("checksum should change after the edit")
	}

	row, err := db.GetNote("Movies/Inception.md")
	if err != nil {
		t.Fatalf("index GetNote: %v", err)
	}
	if row.Watched == nil || !*row.Watched {
		t.Error("index not updated")
	}

	again, err := svc.MarkWatched(ctx, "Movies/Inception.md", "")
	if err != nil {
		t.Fatalf("second MarkWatched: %v", err)
	}
	if again.Checksum != note.Checksum {
		t.Error("marking twice should not rewrite the note")
	}
}

func TestMarkWatched_RejectsBooks(t *testing.T) {
	svc, store, db := testService(t)
	testutil.Seed(t, store, db, "Books/Dune.md", testutil.BookNote("Dune", 1965, "Frank Herbert"))

	_, err := svc.MarkWatched(context.Background(), "Books/Dune.md", "")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestListNotes_KindAlias(t *testing.T) {
	svc, store, db := testService(t)
	testutil.Seed(t, store, db, "Books/Dune.md", testutil.BookNote("Dune", 1965, "Frank Herbert"))
	testutil.Seed(t, store, db, "Movies/Inception.md", testutil.MovieNote("Inception", 2010, "Christopher Nolan"))
	testutil.Seed(t, store, db, "Series/Dark.md",
		[]byte("---\ntitle: Dark\nyear: 2017\ntype: tv\nwatched: false\n---\n\n# Dark\n"))

	ctx := context.Background()
	items, total, err := svc.ListNotes(ctx, index.ListFilter{Kind: "series"})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 1 || items[0].Title != "Dark" {
		t.Errorf("series = %+v (total %d)", items, total)
	}

	items, total, err = svc.ListNotes(ctx, index.ListFilter{Unwatched: true, Sort: "title"})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || items[0].Title != "Dark" || items[1].Title != "Inception" {
		t.Errorf("unwatched = %+v (total %d)", items, total)
	}

	if _, _, err := svc.ListNotes(ctx, index.ListFilter{Kind: "podcast"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("unknown kind: err = %v", err)
	}
}

func TestDeleteNote(t *testing.T) {
	svc, store, db := testService(t)
	testutil.Seed(t, store, db, "Books/Dune.md", testutil.BookNote("Dune", 1965, "Frank Herbert"))
	ctx := context.Background()

	if err := svc.DeleteNote(ctx, "Books/Dune.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := db.GetNote("Books/Dune.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("index row survived: %v", err)
	}
	if err := svc.DeleteNote(ctx, "Books/Dune.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestBacklinksAndSearch(t *testing.T) {
	svc, store, db := testService(t)
	testutil.Seed(t, store, db, "Books/Dune.md", testutil.BookNote("Dune", 1965, "Frank Herbert"))
	testutil.Seed(t, store, db, "Books/Children of Dune.md", testutil.BookNote("Children of Dune", 1976, "Frank Herbert"))
	ctx := context.Background()

	bl, err := svc.Backlinks(ctx, "Frank Herbert")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Errorf("backlinks = %v", bl)
	}

	none, err := svc.Backlinks(ctx, "Nobody")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("empty backlinks = %v, %v", none, err)
	}

	results, err := svc.Search(ctx, "Children", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "Books/Children of Dune.md" {
		t.Errorf("search = %+v", results)
	}
}

func TestLinkTarget(t *testing.T) {
	if got := LinkTarget("Movies/Inception.md"); got != "Inception" {
		t.Errorf("LinkTarget = %q", got)
	}
}
