package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/noteservice"
)

// Handler holds the note route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// notePath extracts the note path from the URL (everything after the route prefix).
// Supports encoded slashes from OpenAPI clients (e.g. Movies%2FInception.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List indexed notes with optional pagination and filtering
//	@Tags			notes
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			kind		query		string	false	"Filter by kind"	Enums(book, movie, series)
//	@Param			unwatched	query		bool	false	"Only movies and series not yet watched"
//	@Param			sort		query		string	false	"Sort field"	Enums(updated, title, year)
//	@Success		200			{object}	NoteListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	unwatched, _ := strconv.ParseBool(q.Get("unwatched"))

	items, total, err := h.svc.ListNotes(r.Context(), index.ListFilter{
		Limit:     limit,
		Offset:    offset,
		Kind:      q.Get("kind"),
		Sort:      q.Get("sort"),
		Unwatched: unwatched,
	})
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: total})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary		Get a single note by path
//	@Tags			notes
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeError(w, "get note", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", strconv.Quote(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// MarkWatched handles PUT /api/watched/*.
//
//	@Summary		Mark a movie or series note as watched
//	@Tags			notes
//	@Produce		json
//	@Param			path		path		string	true	"Note path"
//	@Param			If-Match	header		string	false	"SHA-256 checksum for optimistic concurrency"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/watched/{path} [put]
func (h *Handler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.MarkWatched(r.Context(), path, ifMatch)
	if err != nil {
		writeError(w, "mark watched", err, slog.String("path", path))
		return
	}
	w.Header().Set("ETag", strconv.Quote(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/*.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			path	path	string	true	"Note path"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{path} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteNote(r.Context(), path); err != nil {
		writeError(w, "delete note", err, slog.String("path", path))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i] = SearchResult{Path: res.Path, Title: res.Title, Kind: res.Kind, Year: res.Year, Snippet: res.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}

// Backlinks handles GET /api/backlinks.
//
//	@Summary		List notes linking to a wikilink target
//	@Tags			search
//	@Produce		json
//	@Param			target	query		string	true	"Link target, e.g. an author"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("target"))
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'target' is required"))
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), target)
	if err != nil {
		writeError(w, "backlinks", err, slog.String("target", target))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Target: target, Backlinks: bl})
}

// Health handles the unauthenticated /health/live and /health/ready probes.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: time.Now().UTC()})
}
