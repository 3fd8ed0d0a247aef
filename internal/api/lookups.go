package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/lookup"
	"github.com/starford/shelfmark/internal/models"
)

// LookupService is the part of lookup.Service the API needs.
type LookupService interface {
	Lookup(ctx context.Context, req lookup.Request) (*lookup.Result, error)
	History(ctx context.Context, limit int) ([]models.Lookup, error)
}

// LookupHandler serves the lookup routes.
type LookupHandler struct {
	svc LookupService
}

// NewLookupHandler creates a LookupHandler.
func NewLookupHandler(svc LookupService) *LookupHandler {
	return &LookupHandler{svc: svc}
}

// Create handles POST /api/lookups. The lookup runs synchronously; progress
// is streamed on /api/events while it does.
//
//	@Summary		Look up a title and write its note
//	@Tags			lookups
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LookupRequest	true	"Title to look up"
//	@Success		201		{object}	LookupResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	LookupFailure
//	@Failure		502		{object}	LookupFailure
//	@Security		BearerAuth
//	@Router			/lookups [post]
func (h *LookupHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	res, err := h.svc.Lookup(r.Context(), lookup.Request{
		Title:   req.Title,
		Kind:    req.Kind,
		Year:    req.Year,
		Backend: req.Backend,
	})
	if err != nil {
		var nf *lookup.NotFoundError
		switch {
		case errors.As(err, &nf):
			status := http.StatusNotFound
			if nf.AnyFailed() {
				status = http.StatusBadGateway
			}
			writeJSON(w, status, LookupFailure{Error: err.Error(), Attempts: lookup.ModelAttempts(nf.Attempts)})
		case errors.Is(err, apperr.ErrWrite):
			slog.Error("lookup write failed", slog.String("title", req.Title), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		case errors.Is(err, context.Canceled):
			// Client went away; nothing was written.
		default:
			writeError(w, "lookup", err, slog.String("title", req.Title))
		}
		return
	}

	writeJSON(w, http.StatusCreated, LookupResponse{
		ID:       res.ID,
		NotePath: res.NotePath,
		Strategy: string(res.Strategy),
		Backend:  res.Backend,
		Record:   res.Record,
		Attempts: lookup.ModelAttempts(res.Attempts),
	})
}

// History handles GET /api/lookups.
//
//	@Summary		Recent lookups, newest first
//	@Tags			lookups
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	LookupHistoryResponse
//	@Security		BearerAuth
//	@Router			/lookups [get]
func (h *LookupHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, "lookup history", err)
		return
	}
	if items == nil {
		items = []models.Lookup{}
	}
	writeJSON(w, http.StatusOK, LookupHistoryResponse{Lookups: items})
}
