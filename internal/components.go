package internal

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/lookup"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/metadata/googlebooks"
	"github.com/starford/shelfmark/internal/metadata/httpjson"
	"github.com/starford/shelfmark/internal/metadata/omdb"
	"github.com/starford/shelfmark/internal/metadata/tmdb"
	"github.com/starford/shelfmark/internal/noteservice"
	"github.com/starford/shelfmark/internal/storage"
	"github.com/starford/shelfmark/internal/translate"
)

// Components are the services shared by every command.
type Components struct {
	Store   *storage.FS
	Index   *index.DB
	Notes   *noteservice.Service
	Lookups *lookup.Service
}

// NewComponents opens the vault and the index and builds the lookup
// pipeline. events may be nil. Close releases the index.
func NewComponents(cfg *Config, logger *slog.Logger, events lookup.Publisher) (*Components, error) {
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	backends, err := NewBackends(cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	tr, err := translate.New(cfg.Translator.Backend,
		translate.GoogleConfig{BaseURL: cfg.Translator.BaseURL, HTTP: newHTTP(cfg, "google_translate", 0)},
		translate.OpenAIConfig{
			APIKey:  cfg.Translator.OpenAI.APIKey,
			BaseURL: cfg.Translator.OpenAI.BaseURL,
			Model:   cfg.Translator.OpenAI.Model,
		})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init translator: %w", err)
	}
	if tr == nil {
		logger.Info("translation disabled")
	}

	lookups := lookup.NewService(backends, translate.NewAdapter(tr, logger), store, db, events, lookup.Config{
		Dirs:   cfg.Vault.KindDirs(),
		Render: cfg.Vault.RenderOptions(),
	}, logger)

	return &Components{
		Store:   store,
		Index:   db,
		Notes:   noteservice.NewService(store, db),
		Lookups: lookups,
	}, nil
}

// Close releases the index.
func (c *Components) Close() error {
	return c.Index.Close()
}

// NewBackends builds the metadata clients whose settings are complete.
// A screen backend without an API key is skipped with a warning, so that
// book lookups still work; asking for it later fails with a clear error.
func NewBackends(cfg *Config, logger *slog.Logger) (lookup.Backends, error) {
	b := lookup.Backends{
		Screens:       make(map[string]metadata.Client),
		DefaultScreen: cfg.Lookup.ScreenBackend,
	}

	books, err := googlebooks.New(cfg.GoogleBooks.APIKey, cfg.GoogleBooks.BaseURL,
		newHTTP(cfg, "googlebooks", cfg.GoogleBooks.MinInterval))
	if err != nil {
		return b, fmt.Errorf("init google books: %w", err)
	}
	b.Books = books

	if cfg.TMDB.APIKey == "" {
		logger.Warn("tmdb disabled: TMDB_API_KEY is not set")
	} else {
		c, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.ImageBaseURL, cfg.TMDB.Language,
			newHTTP(cfg, "tmdb", cfg.TMDB.MinInterval))
		if err != nil {
			return b, fmt.Errorf("init tmdb: %w", err)
		}
		b.Screens[c.Name()] = c
	}

	if cfg.OMDB.APIKey == "" {
		logger.Debug("omdb disabled: OMDB_API_KEY is not set")
	} else {
		c, err := omdb.New(cfg.OMDB.APIKey, cfg.OMDB.BaseURL, newHTTP(cfg, "omdb", cfg.OMDB.MinInterval))
		if err != nil {
			return b, fmt.Errorf("init omdb: %w", err)
		}
		b.Screens[c.Name()] = c
	}

	if len(b.Screens) == 0 {
		logger.Warn("no movie or series backend configured; only book lookups will work")
	}
	return b, nil
}

func newHTTP(cfg *Config, backend string, minInterval time.Duration) *httpjson.Client {
	return httpjson.New(backend,
		httpjson.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClient.Timeout}),
		httpjson.WithMinInterval(minInterval),
	)
}
