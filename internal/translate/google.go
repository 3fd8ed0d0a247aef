package translate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/shelfmark/internal/metadata/httpjson"
)

// DefaultGoogleURL is the public gtx endpoint.
const DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// GoogleConfig holds the gtx endpoint settings.
type GoogleConfig struct {
	BaseURL string
	HTTP    *httpjson.Client
}

// Google translates through the keyless gtx endpoint.
type Google struct {
	baseURL string
	http    *httpjson.Client
}

// NewGoogle creates a gtx translator.
func NewGoogle(cfg GoogleConfig) *Google {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultGoogleURL
	}
	h := cfg.HTTP
	if h == nil {
		h = httpjson.New("google_translate")
	}
	return &Google{baseURL: base, http: h}
}

// Name implements Translator.
func (g *Google) Name() string { return "google" }

// Translate implements Translator. The response is a nested array whose
// first element lists [translated, original, ...] segments.
func (g *Google) Translate(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", "en")
	params.Set("dt", "t")
	params.Set("q", text)

	var payload []any
	if err := g.http.Get(ctx, "translate", g.baseURL, params, &payload); err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", ErrEmptyResult
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected gtx payload shape: %T", payload[0])
	}
	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResult
	}
	return b.String(), nil
}
