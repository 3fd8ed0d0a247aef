// Package noteservice exposes read, list and edit operations over the notes
// already written to the vault. It is shared by the HTTP API, the MCP server
// and the CLI.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/parser"
	"github.com/starford/shelfmark/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Kind        string         `json:"kind,omitempty"`
	Year        string         `json:"year,omitempty"`
	Watched     *bool          `json:"watched,omitempty"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Links       []string       `json:"links"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind,omitempty"`
	Year      string    `json:"year,omitempty"`
	Watched   *bool     `json:"watched,omitempty"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    index.NoteIndex
}

// NewService creates a new note service.
func NewService(store storage.Provider, db index.NoteIndex) *Service {
	return &Service{store: store, db: db}
}

// GetNote reads a note from storage, parses it, and enriches with backlinks.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// MarkWatched sets watched: true in a movie or series note. A non-empty
// ifMatch must equal the current checksum, otherwise apperr.ErrConflict is
// returned and the file is left alone. Marking an already watched note is a
// no-op.
func (s *Service) MarkWatched(_ context.Context, path, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != storage.Checksum(existing) {
		return nil, apperr.ErrConflict
	}
	res, err := parser.Parse(existing)
	if err != nil {
		return nil, err
	}
	if kind, err := metadata.ParseKind(res.Kind); err != nil || !kind.IsScreen() {
		return nil, fmt.Errorf("%s is not a movie or series note: %w", path, apperr.ErrInvalidInput)
	}
	if res.Watched != nil && *res.Watched {
		return s.buildNoteDetail(path, existing)
	}

	updated, err := parser.SetField(existing, "watched", true)
	if err != nil {
		if errors.Is(err, parser.ErrNoFrontmatter) {
			return nil, fmt.Errorf("%s: %w", err.Error(), apperr.ErrInvalidInput)
		}
		return nil, err
	}
	if err := s.store.Write(path, updated); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, updated); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, updated)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteNote(path)
}

// ListNotes returns a page of indexed notes.
func (s *Service) ListNotes(_ context.Context, f index.ListFilter) ([]NoteListItem, int, error) {
	if f.Kind != "" {
		kind, err := metadata.ParseKind(f.Kind)
		if err != nil {
			return nil, 0, err
		}
		f.Kind = kind.Tag()
	}
	rows, total, err := s.db.ListNotes(f)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Kind:      r.Kind,
			Year:      r.Year,
			Watched:   r.Watched,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

// Backlinks returns all note paths that link to the given wikilink target,
// e.g. "Frank Herbert".
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	bl, err := s.db.Backlinks(target)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(bl), nil
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, path, data, time.Now())
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading the file.
func (s *Service) buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(LinkTarget(path))
	if err != nil {
		return nil, err
	}
	updated := time.Now()
	if row, err := s.db.GetNote(path); err == nil {
		updated = row.UpdatedAt
	}
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Kind:        res.Kind,
		Year:        res.Year,
		Watched:     res.Watched,
		Content:     string(data),
		Checksum:    storage.Checksum(data),
		Tags:        nonNilSlice(res.Tags),
		Links:       nonNilSlice(res.Links),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   updated,
	}, nil
}

// LinkTarget is the wikilink text that refers to the note at path: its
// file name without the .md extension.
func LinkTarget(path string) string {
	return strings.TrimSuffix(filepath.Base(filepath.FromSlash(path)), ".md")
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
