package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/shelfmark/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps the apperr taxonomy onto HTTP statuses. Anything outside
// it is logged and reported as an internal error.
func writeError(w http.ResponseWriter, op string, err error, attrs ...slog.Attr) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrUnavailable):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		args := []any{slog.String("error", err.Error())}
		for _, a := range attrs {
			args = append(args, a)
		}
		slog.Error(op+" failed", args...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
