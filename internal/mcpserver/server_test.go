package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/lookup"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/noteservice"
	"github.com/starford/shelfmark/internal/storage"
	"github.com/starford/shelfmark/internal/testutil"
)

type fakeLooker struct {
	req lookup.Request
	res *lookup.Result
	err error
}

func (f *fakeLooker) Lookup(_ context.Context, req lookup.Request) (*lookup.Result, error) {
	f.req = req
	return f.res, f.err
}

func testServer(t *testing.T) (*Server, *storage.FS, *index.DB, *fakeLooker) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	looker := &fakeLooker{}
	srv := New(noteservice.NewService(store, db), looker, "test")
	return srv, store, db, looker
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"lookup_title":    srv.lookupTitle,
		"search_notes":    srv.searchNotes,
		"read_note":       srv.readNote,
		"list_notes":      srv.listNotes,
		"get_backlinks":   srv.getBacklinks,
		"mark_watched":    srv.markWatched,
		"get_note_format": srv.getNoteFormat,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestLookupTitle(t *testing.T) {
	srv, _, _, looker := testServer(t)
	looker.res = &lookup.Result{
		NotePath: "Books/Dune.md",
		Strategy: lookup.StrategyTranslated,
		Backend:  "googlebooks",
		Record:   &metadata.Record{Kind: metadata.KindBook, Title: "Dune"},
	}

	r := callTool(t, srv, "lookup_title", map[string]any{"title": "Дюна", "kind": "book", "year": float64(1965)})
	if r.IsError {
		t.Fatalf("lookup failed: %s", resultText(r))
	}
	if looker.req.Title != "Дюна" || looker.req.Kind != "book" || looker.req.Year != 1965 {
		t.Errorf("request = %+v", looker.req)
	}
	if !strings.Contains(resultText(r), `"note_path": "Books/Dune.md"`) {
		t.Errorf("result = %s", resultText(r))
	}
}

func TestLookupTitle_NotFoundListsAttempts(t *testing.T) {
	srv, _, _, looker := testServer(t)
	looker.err = &lookup.NotFoundError{
		Query: lookup.Query{Title: "qwerty", Kind: metadata.KindMovie},
		Attempts: []lookup.Attempt{
			{Strategy: lookup.StrategyOriginal, Text: "qwerty", Outcome: lookup.OutcomeNotFound},
		},
	}
	r := callTool(t, srv, "lookup_title", map[string]any{"title": "qwerty", "kind": "movie"})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(r), `"strategy": "original"`) {
		t.Errorf("attempts missing: %s", resultText(r))
	}
}

func TestLookupTitle_MissingKind(t *testing.T) {
	srv, _, _, _ := testServer(t)
	if r := callTool(t, srv, "lookup_title", map[string]any{"title": "Dune"}); !r.IsError {
		t.Error("expected error without kind")
	}
}

func TestReadNote(t *testing.T) {
	srv, store, db, _ := testServer(t)
	data := testutil.MovieNote("Inception", 2010, "Christopher Nolan")
	testutil.Seed(t, store, db, "Movies/Inception.md", data)

	r := callTool(t, srv, "read_note", map[string]any{"path": "Movies/Inception.md"})
	text := resultText(r)
	if !strings.HasPrefix(text, "checksum: "+storage.Checksum(data)) {
		t.Errorf("read result = %q", text)
	}
	if !strings.HasSuffix(text, string(data)) {
		t.Error("content missing from read result")
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv, store, db, _ := testServer(t)
	testutil.Seed(t, store, db, "Books/Dune.md", testutil.BookNote("Dune", 1965, "Frank Herbert"))
	testutil.Seed(t, store, db, "Movies/Inception.md", testutil.MovieNote("Inception", 2010, "Christopher Nolan"))

	text := resultText(callTool(t, srv, "list_notes", map[string]any{"unwatched": true}))
	if !strings.Contains(text, "Movies/Inception.md") || strings.Contains(text, "Dune") {
		t.Errorf("unwatched list = %q", text)
	}

	text = resultText(callTool(t, srv, "list_notes", map[string]any{"kind": "series"}))
	if text != "no notes found" {
		t.Errorf("empty list = %q", text)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, store, db, _ := testServer(t)
	testutil.Seed(t, store, db, "Books/Dune.md", testutil.BookNote("Dune", 1965, "Frank Herbert"))

	r := callTool(t, srv, "get_backlinks", map[string]any{"target": "[[Frank Herbert]]"})
	if text := resultText(r); text != "Books/Dune.md" {
		t.Errorf("backlinks = %q, want Books/Dune.md", text)
	}
}

func TestMarkWatched(t *testing.T) {
	srv, store, db, _ := testServer(t)
	testutil.Seed(t, store, db, "Movies/Inception.md", testutil.MovieNote("Inception", 2010, "Christopher Nolan"))

	r := callTool(t, srv, "mark_watched", map[string]any{"path": "Movies/Inception.md", "checksum": "stale"})
	if !r.IsError || !strings.Contains(resultText(r), "changed") {
		t.Errorf("stale checksum result = %q", resultText(r))
	}

	r = callTool(t, srv, "mark_watched", map[string]any{"path": "Movies/Inception.md"})
	if r.IsError {
		t.Fatalf("mark watched: %s", resultText(r))
	}
	row, err := db.GetNote("Movies/Inception.md")
	if err != nil || row.Watched == nil || !*row.Watched {
		t.Errorf("index row = %+v, %v", row, err)
	}
}

func TestGetNoteFormat(t *testing.T) {
	srv, _, _, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_note_format", nil))
	for _, want := range []string{"type: tv", "watched: false", "[[Recommendations]]"} {
		if !strings.Contains(text, want) {
			t.Errorf("format missing %q", want)
		}
	}
}
