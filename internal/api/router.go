package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/shelfmark/internal/noteservice"
)

// NewRouter builds the /api routes. When authEnabled, every route requires
// the Bearer token. events, if non-nil, serves GET /events.
func NewRouter(notes *noteservice.Service, lookups LookupService, authEnabled bool, token string, events http.Handler) chi.Router {
	h := NewHandler(notes)
	lh := NewLookupHandler(lookups)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/lookups", func(r chi.Router) {
		r.With(middleware.AllowContentType("application/json")).Post("/", lh.Create)
		r.Get("/", lh.History)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Get("/*", h.GetNote)
		r.Delete("/*", h.DeleteNote)
	})
	r.Put("/watched/*", h.MarkWatched)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/search", h.Search)
		r.Get("/backlinks", h.Backlinks)
	})

	if events != nil {
		r.Method(http.MethodGet, "/events", events)
	}
	return r
}
