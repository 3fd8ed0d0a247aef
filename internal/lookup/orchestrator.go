package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/textnorm"
	"github.com/starford/shelfmark/internal/translit"
)

// Strategy names the text variant a search attempt used.
type Strategy string

const (
	StrategyOriginal       Strategy = "original"
	StrategyTransliterated Strategy = "transliterated"
	StrategyTranslated     Strategy = "translated"
)

// Outcome is the result of one search attempt.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// Attempt records one search.
type Attempt struct {
	Strategy Strategy
	Text     string
	Outcome  Outcome
	Err      error
}

// Translator is the part of translate.Adapter the orchestrator needs.
type Translator interface {
	ToEnglish(ctx context.Context, text string) (string, bool)
}

// Match is a successful search.
type Match struct {
	Summary  *metadata.Summary
	Strategy Strategy
	Attempts []Attempt
}

// NotFoundError is returned when every strategy came up empty.
type NotFoundError struct {
	Query    Query
	Attempts []Attempt
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no %s found for %q", e.Query.Kind, e.Query.Title)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s %q: %s", a.Strategy, a.Text, a.Outcome)
		if a.Err != nil && a.Outcome == OutcomeFailed {
			fmt.Fprintf(&b, " (%v)", a.Err)
		}
	}
	return b.String()
}

// Is matches apperr.ErrNotFound always, and apperr.ErrUnavailable when at
// least one attempt failed rather than returning zero results.
func (e *NotFoundError) Is(target error) bool {
	switch target {
	case apperr.ErrNotFound:
		return true
	case apperr.ErrUnavailable:
		return e.AnyFailed()
	}
	return false
}

// AnyFailed reports whether a backend request failed during the search.
func (e *NotFoundError) AnyFailed() bool {
	for _, a := range e.Attempts {
		if a.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Orchestrator runs the fallback search against one metadata backend.
type Orchestrator struct {
	client     metadata.Client
	translator Translator
	logger     *slog.Logger
	observe    func(Attempt)
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithObserver registers fn to be called after every attempt.
func WithObserver(fn func(Attempt)) OrchestratorOption {
	return func(o *Orchestrator) { o.observe = fn }
}

// NewOrchestrator creates an Orchestrator. translator may be nil.
func NewOrchestrator(client metadata.Client, translator Translator, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{client: client, translator: translator, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Find tries the original title, then its transliteration (Cyrillic movie
// and series titles only), then its English translation. Strategies run one
// at a time and the first hit wins. A failed request moves on to the next
// strategy just like an empty result.
func (o *Orchestrator) Find(ctx context.Context, q Query) (*Match, error) {
	var attempts []Attempt
	tried := make(map[string]struct{})

	try := func(strategy Strategy, text string) (*metadata.Summary, error) {
		tried[strings.ToLower(text)] = struct{}{}
		o.logger.Info("lookup: trying strategy",
			slog.String("strategy", string(strategy)),
			slog.String("text", text),
			slog.String("backend", o.client.Name()))

		s, err := o.client.Search(ctx, metadata.SearchQuery{Text: text, Kind: q.Kind, Year: q.Year})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a := Attempt{Strategy: strategy, Text: text, Outcome: OutcomeFound}
		switch {
		case err == nil:
		case errors.Is(err, apperr.ErrNotFound):
			a.Outcome, a.Err = OutcomeNotFound, err
		case errors.Is(err, apperr.ErrInvalidInput):
			return nil, err
		default:
			a.Outcome, a.Err = OutcomeFailed, err
			o.logger.Warn("lookup: backend request failed",
				slog.String("strategy", string(strategy)),
				slog.String("error", err.Error()))
		}
		attempts = append(attempts, a)
		if o.observe != nil {
			o.observe(a)
		}
		if a.Outcome != OutcomeFound {
			return nil, nil
		}
		return s, nil
	}
	seen := func(text string) bool {
		_, ok := tried[strings.ToLower(text)]
		return ok
	}
	found := func(s *metadata.Summary, strategy Strategy) *Match {
		o.logger.Info("lookup: found",
			slog.String("strategy", string(strategy)),
			slog.String("title", s.Title),
			slog.String("id", s.ID))
		return &Match{Summary: s, Strategy: strategy, Attempts: attempts}
	}

	s, err := try(StrategyOriginal, q.Title)
	if err != nil {
		return nil, err
	}
	if s != nil {
		return found(s, StrategyOriginal), nil
	}

	if q.Kind.IsScreen() && textnorm.DetectScript(q.Title) == textnorm.Cyrillic {
		if latin := translit.FromCyrillic(q.Title); !seen(latin) {
			s, err := try(StrategyTransliterated, latin)
			if err != nil {
				return nil, err
			}
			if s != nil {
				return found(s, StrategyTransliterated), nil
			}
		}
	}

	if o.translator != nil {
		if english, ok := o.translator.ToEnglish(ctx, q.Title); ok && !seen(english) {
			s, err := try(StrategyTranslated, english)
			if err != nil {
				return nil, err
			}
			if s != nil {
				return found(s, StrategyTranslated), nil
			}
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	return nil, &NotFoundError{Query: q, Attempts: attempts}
}
