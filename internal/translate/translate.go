// Package translate turns titles into English for the last search strategy.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/shelfmark/internal/metrics"
)

// Translator translates text to English with the source language detected
// by the backend.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text string) (string, error)
}

// ErrEmptyResult is returned by backends that answered without any text.
var ErrEmptyResult = errors.New("translation is empty")

// Adapter wraps a Translator and swallows its failures.
type Adapter struct {
	translator Translator
	logger     *slog.Logger
}

// NewAdapter creates an Adapter. A nil translator disables translation.
func NewAdapter(t Translator, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{translator: t, logger: logger}
}

// ToEnglish returns the English translation of text. Any failure is logged
// and reported as ok == false.
func (a *Adapter) ToEnglish(ctx context.Context, text string) (string, bool) {
	text = strings.TrimSpace(text)
	if a == nil || a.translator == nil || text == "" {
		return "", false
	}
	name := a.translator.Name()
	out, err := a.translator.Translate(ctx, text)
	if err == nil {
		out = strings.TrimSpace(out)
		if out == "" {
			err = ErrEmptyResult
		}
	}
	if err != nil {
		metrics.TranslationsTotal.WithLabelValues(name, "error").Inc()
		a.logger.Warn("translate: failed", "backend", name, "text", text, "error", err)
		return "", false
	}
	metrics.TranslationsTotal.WithLabelValues(name, "ok").Inc()
	a.logger.Debug("translate: done", "backend", name, "text", text, "result", out)
	return out, true
}

// New builds the Translator named by backend.
func New(backend string, google GoogleConfig, openAI OpenAIConfig) (Translator, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "google":
		return NewGoogle(google), nil
	case "openai":
		t, err := NewOpenAI(openAI)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "none", "disabled":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown translator backend %q", backend)
}
