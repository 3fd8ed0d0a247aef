// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes shelfmark tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/lookup"
	"github.com/starford/shelfmark/internal/noteservice"
)

const noteFormatURI = "shelfmark://note-format"

// Looker runs a lookup and writes its note.
type Looker interface {
	Lookup(ctx context.Context, req lookup.Request) (*lookup.Result, error)
}

// Server wraps the MCP server with shelfmark tools.
type Server struct {
	mcp     *server.MCPServer
	notes   *noteservice.Service
	lookups Looker
}

// New creates a new MCP server with all shelfmark tools registered.
func New(notes *noteservice.Service, lookups Looker, version string) *Server {
	s := &Server{notes: notes, lookups: lookups}

	s.mcp = server.NewMCPServer(
		"shelfmark",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("lookup_title",
		mcp.WithDescription("Look up a book, movie or series by title and write its note into the vault. "+
			"Titles in any language are accepted; the search falls back to a transliterated "+
			"and then an English translation of the title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title as the user wrote it, e.g. Дюна")),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("book", "movie", "series"), mcp.Description("Content kind")),
		mcp.WithNumber("year", mcp.Description("Optional release year used to pick between candidates")),
		mcp.WithString("backend", mcp.Enum("tmdb", "omdb"), mcp.Description("Optional movie/series backend")),
	), s.lookupTitle)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. Movies/Inception.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List indexed notes, optionally filtered by kind or by unwatched movies and series."),
		mcp.WithString("kind", mcp.Enum("book", "movie", "series"), mcp.Description("Optional kind filter")),
		mcp.WithBoolean("unwatched", mcp.Description("Only movies and series not yet watched")),
		mcp.WithString("sort", mcp.Enum("updated", "title", "year"), mcp.Description("Sort order")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to a target, e.g. an author, director, actor, genre or year."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Wikilink target without brackets, e.g. Frank Herbert")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("mark_watched",
		mcp.WithDescription("Set watched: true in a movie or series note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("checksum", mcp.Description("Optional checksum from read_note; the edit is refused if the note changed since")),
	), s.markWatched)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns the layout of the notes shelfmark writes."),
	), s.getNoteFormat)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("Layout of book, movie and series notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) lookupTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.lookups.Lookup(ctx, lookup.Request{
		Title:   title,
		Kind:    kind,
		Year:    req.GetInt("year", 0),
		Backend: req.GetString("backend", ""),
	})
	if err != nil {
		var nf *lookup.NotFoundError
		if errors.As(err, &nf) {
			out, _ := json.MarshalIndent(map[string]any{
				"error":    err.Error(),
				"attempts": lookup.ModelAttempts(nf.Attempts),
			}, "", "  ")
			return mcp.NewToolResultError(string(out)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"note_path": res.NotePath,
		"strategy":  res.Strategy,
		"backend":   res.Backend,
		"record":    res.Record,
		"attempts":  lookup.ModelAttempts(res.Attempts),
	})
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.notes.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("checksum: %s\n\n%s", note.Checksum, note.Content)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.notes.ListNotes(ctx, index.ListFilter{
		Limit:     req.GetInt("limit", 50),
		Kind:      req.GetString("kind", ""),
		Sort:      req.GetString("sort", ""),
		Unwatched: req.GetBool("unwatched", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d notes\n", len(items), total)
	for _, it := range items {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", it.Path, it.Kind, it.Year, it.Title)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(target), "[["), "]]")
	bl, err := s.notes.Backlinks(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) markWatched(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.MarkWatched(ctx, path, req.GetString("checksum", ""))
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return mcp.NewToolResultError("note changed since it was read; read it again and retry"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("watched: %s (checksum %s)", note.Path, note.Checksum)), nil
}

func (s *Server) getNoteFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormat), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}
