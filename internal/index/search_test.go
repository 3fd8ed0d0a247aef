package index

import (
	"reflect"
	"testing"
	"time"
)

func TestSearchTerms(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Dune: Part Two", []string{"dune", "part", "two"}},
		{"  Тьма (2017) ", []string{"тьма", "2017"}},
		{`50% "off"_`, []string{"50", "off"}},
		{"::", nil},
	}
	for _, tt := range tests {
		got := searchTerms(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("searchTerms(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchExpr(t *testing.T) {
	if got, want := matchExpr(`title:Dune "OR`), `"title" "dune" "or"*`; got != want {
		t.Errorf("matchExpr = %s, want %s", got, want)
	}
	if got := matchExpr("  "); got != "" {
		t.Errorf("blank query gave %q", got)
	}
}

func TestLikePattern(t *testing.T) {
	if got, want := likePattern(`a%b_c\`), `%a\%b\_c\\%`; got != want {
		t.Errorf("likePattern = %s, want %s", got, want)
	}
}

func TestSearch_AllWordsAndYear(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{Path: "Movies/Dune Part Two.md", Title: "Dune: Part Two", Kind: "movie", Year: "2024", Checksum: "1", UpdatedAt: now}, "Paul joins the Fremen.", nil)
	_ = db.UpsertNote(NoteRow{Path: "Books/Dune.md", Title: "Dune", Kind: "book", Year: "1965", Checksum: "2", UpdatedAt: now}, "Desert planet.", nil)

	results, err := db.Search("Dune: Part Two", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Year != "2024" {
		t.Errorf("punctuated title search = %+v", results)
	}

	results, err = db.Search("dune 1965", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "Books/Dune.md" {
		t.Errorf("title plus year search = %+v", results)
	}

	results, err = db.Search("%%", 10)
	if err != nil || len(results) != 0 {
		t.Errorf("wildcard-only query = %+v, %v", results, err)
	}
}
