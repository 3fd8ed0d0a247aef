package api

import (
	"time"

	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/models"
	"github.com/starford/shelfmark/internal/noteservice"
)

// LookupRequest is the request body for starting a lookup.
type LookupRequest struct {
	Title   string `json:"title" example:"Дюна" validate:"required"`
	Kind    string `json:"kind" example:"book" validate:"required" enums:"book,movie,series"`
	Year    int    `json:"year,omitempty" example:"1965"`
	Backend string `json:"backend,omitempty" example:"tmdb" enums:"tmdb,omdb"`
}

// LookupResponse describes a note written by a lookup.
type LookupResponse struct {
	ID       string           `json:"id" validate:"required"`
	NotePath string           `json:"note_path" example:"Books/Dune.md" validate:"required"`
	Strategy string           `json:"strategy" example:"translated" validate:"required"`
	Backend  string           `json:"backend" example:"googlebooks" validate:"required"`
	Record   *metadata.Record `json:"record" validate:"required"`
	Attempts []models.Attempt `json:"attempts" validate:"required"`
}

// LookupFailure is returned when no strategy found a match.
type LookupFailure struct {
	Error    string           `json:"error" validate:"required"`
	Attempts []models.Attempt `json:"attempts" validate:"required"`
}

// LookupHistoryResponse wraps recent lookups.
type LookupHistoryResponse struct {
	Lookups []models.Lookup `json:"lookups" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"Movies/Inception.md" validate:"required"`
	Title   string `json:"title" example:"Inception" validate:"required"`
	Kind    string `json:"kind,omitempty" example:"movie"`
	Year    string `json:"year,omitempty" example:"2010"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// BacklinksResponse lists the notes linking to a target.
type BacklinksResponse struct {
	Target    string   `json:"target" example:"Frank Herbert" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string    `json:"status" example:"ok"`
	Time   time.Time `json:"time"`
}
