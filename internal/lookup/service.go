package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/metrics"
	"github.com/starford/shelfmark/internal/models"
	"github.com/starford/shelfmark/internal/render"
	"github.com/starford/shelfmark/internal/sse"
	"github.com/starford/shelfmark/internal/storage"
)

// Lookup statuses stored in the history and used as metric outcomes.
const (
	StatusWritten     = "written"
	StatusNotFound    = "not_found"
	StatusUnavailable = "unavailable"
	StatusError       = "error"
)

// Request is a lookup as received from the CLI, HTTP or MCP.
type Request struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Year    int    `json:"year,omitempty"`
	Backend string `json:"backend,omitempty"` // movie and series backend: tmdb or omdb
}

// Validate checks the request shape; NewQuery checks the rest.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.Kind, validation.Required),
		validation.Field(&r.Backend, validation.In("tmdb", "omdb")),
	)
}

// Result describes a written note.
type Result struct {
	ID       string           `json:"id"`
	NotePath string           `json:"note_path"`
	Strategy Strategy         `json:"strategy"`
	Backend  string           `json:"backend"`
	Record   *metadata.Record `json:"record"`
	Attempts []Attempt        `json:"-"`
}

// Publisher receives lookup progress events.
type Publisher interface {
	Publish(sse.Event)
}

// Backends groups the metadata clients by kind.
type Backends struct {
	Books         metadata.Client
	Screens       map[string]metadata.Client // keyed by client name
	DefaultScreen string
}

func (b Backends) forKind(kind metadata.Kind, name string) (metadata.Client, error) {
	if kind == metadata.KindBook {
		if b.Books == nil {
			return nil, fmt.Errorf("no book backend configured: %w", apperr.ErrUnavailable)
		}
		return b.Books, nil
	}
	if name == "" {
		name = b.DefaultScreen
	}
	c, ok := b.Screens[name]
	if !ok || c == nil {
		return nil, fmt.Errorf("backend %q is not configured: %w", name, apperr.ErrInvalidInput)
	}
	return c, nil
}

// Config holds the vault layout used when writing notes.
type Config struct {
	Dirs   map[metadata.Kind]string // vault-relative directory per kind; "" is the vault root
	Render render.Options
}

// Service runs the full pipeline: search, fetch, render, write, index.
type Service struct {
	backends   Backends
	translator Translator
	store      storage.Provider
	idx        index.NoteIndex
	events     Publisher
	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service. idx and events may be nil.
func NewService(backends Backends, translator Translator, store storage.Provider, idx index.NoteIndex,
	events Publisher, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backends:   backends,
		translator: translator,
		store:      store,
		idx:        idx,
		events:     events,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Lookup resolves req and writes the note. Nothing is written when the
// search fails or ctx is cancelled.
func (s *Service) Lookup(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid(err)
	}
	kind, err := metadata.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	q, err := NewQuery(req.Title, kind, req.Year)
	if err != nil {
		return nil, err
	}
	client, err := s.backends.forKind(kind, req.Backend)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := s.logger.With(slog.String("lookup_id", id), slog.String("kind", string(kind)))
	hist := models.Lookup{
		ID:        id,
		Query:     q.Title,
		Kind:      string(kind),
		Year:      q.Year,
		Backend:   client.Name(),
		CreatedAt: s.now(),
	}
	s.publish("lookup.started", map[string]any{
		"id": id, "title": q.Title, "kind": kind, "year": q.Year, "backend": client.Name(),
	})

	orch := NewOrchestrator(client, s.translator, logger, WithObserver(func(a Attempt) {
		metrics.SearchAttemptsTotal.WithLabelValues(string(a.Strategy), string(a.Outcome)).Inc()
		s.publish("lookup.attempt", map[string]any{
			"id": id, "strategy": a.Strategy, "text": a.Text, "outcome": a.Outcome,
		})
	}))

	res, err := s.run(ctx, orch, client, q, logger)
	if res != nil {
		hist.Attempts = ModelAttempts(res.Attempts)
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		hist.Attempts = ModelAttempts(nf.Attempts)
	}
	if err != nil {
		hist.Status = statusOf(err)
		hist.Error = err.Error()
		s.finish(hist, kind, logger)
		s.publish("lookup.failed", map[string]any{"id": id, "status": hist.Status, "error": err.Error()})
		return nil, err
	}

	res.ID = id
	hist.Status = StatusWritten
	hist.Strategy = string(res.Strategy)
	hist.NotePath = res.NotePath
	s.finish(hist, kind, logger)
	s.publish("lookup.completed", map[string]any{
		"id": id, "path": res.NotePath, "title": res.Record.Title, "strategy": res.Strategy,
	})
	return res, nil
}

func (s *Service) run(ctx context.Context, orch *Orchestrator, client metadata.Client, q Query, logger *slog.Logger) (*Result, error) {
	match, err := orch.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	res := &Result{Strategy: match.Strategy, Backend: client.Name(), Attempts: match.Attempts}

	details, err := client.FetchDetails(ctx, match.Summary.ID, q.Kind)
	if err != nil {
		return res, fmt.Errorf("fetch details for %s: %w", match.Summary.ID, err)
	}
	credits, err := client.FetchCredits(ctx, match.Summary.ID, q.Kind)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		logger.Warn("lookup: credits unavailable, writing note without people",
			slog.String("id", match.Summary.ID), slog.String("error", err.Error()))
		credits = nil
	}
	if details.Kind == "" {
		details.Kind = q.Kind
	}
	res.Record = metadata.NewRecord(client.Name(), details, credits)

	doc, err := render.Render(res.Record, s.cfg.Render)
	if err != nil {
		return res, err
	}
	content, err := doc.Bytes()
	if err != nil {
		return res, err
	}
	name, err := doc.FileName()
	if err != nil {
		return res, apperr.Invalid(err)
	}
	dir := strings.Trim(s.cfg.Dirs[q.Kind], "/")
	if !s.store.DirExists(dir) {
		return res, fmt.Errorf("target directory %q does not exist in the vault: %w", dir, apperr.ErrWrite)
	}
	rel := path.Join(dir, name)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := s.store.Write(rel, content); err != nil {
		return res, err
	}
	res.NotePath = rel
	logger.Info("lookup: note written", slog.String("path", rel), slog.String("title", res.Record.Title))

	if s.idx != nil {
		if err := index.IndexFile(s.idx, rel, content, time.Time{}); err != nil {
			logger.Warn("lookup: index update failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
	return res, nil
}

func (s *Service) finish(hist models.Lookup, kind metadata.Kind, logger *slog.Logger) {
	metrics.LookupsTotal.WithLabelValues(string(kind), hist.Status).Inc()
	if hist.Status != StatusWritten {
		logger.Warn("lookup: failed", slog.String("status", hist.Status), slog.String("error", hist.Error))
	}
	if s.idx == nil {
		return
	}
	if err := s.idx.RecordLookup(hist); err != nil {
		logger.Warn("lookup: history not recorded", slog.String("error", err.Error()))
	}
}

func (s *Service) publish(typ string, data any) {
	if s.events == nil {
		return
	}
	s.events.Publish(sse.Event{Type: typ, Data: data})
}

// History returns the most recent lookups.
func (s *Service) History(_ context.Context, limit int) ([]models.Lookup, error) {
	if s.idx == nil {
		return nil, nil
	}
	return s.idx.RecentLookups(limit)
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, apperr.ErrUnavailable):
		return StatusUnavailable
	case errors.Is(err, apperr.ErrNotFound):
		return StatusNotFound
	}
	return StatusError
}

// ModelAttempts converts an attempt trace into its stored and wire form.
func ModelAttempts(in []Attempt) []models.Attempt {
	out := make([]models.Attempt, 0, len(in))
	for _, a := range in {
		m := models.Attempt{Strategy: string(a.Strategy), Text: a.Text, Outcome: string(a.Outcome)}
		if a.Outcome == OutcomeFailed && a.Err != nil {
			m.Error = a.Err.Error()
		}
		out = append(out, m)
	}
	return out
}
