// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/shelfmark/internal/api"
	"github.com/starford/shelfmark/internal/index"
	"github.com/starford/shelfmark/internal/mcpserver"
	"github.com/starford/shelfmark/internal/metrics"
	"github.com/starford/shelfmark/internal/sse"
)

func (app *application) setupLogger(defaultFormat string) (*slog.Logger, func() error, error) {
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if app.logger != nil {
		return app.logger, func() error { return nil }, nil
	}
	logger, closeLog, err := NewLogger(app.config.App, os.Stdout, defaultFormat)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, closeLog, nil
}

// LockIndex takes the single-instance lock next to the SQLite index.
// The returned function releases it.
func LockIndex(sqlitePath string) (func() error, error) {
	lock := flock.New(sqlitePath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock index: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("index %s is in use by another shelfmark server", sqlitePath)
	}
	return lock.Unlock, nil
}

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	logger, closeLog, err := app.setupLogger(LogFormatJSON)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	unlock, err := LockIndex(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer unlock()

	metrics.Register()

	// SSE broker.
	broker := sse.NewBroker(sse.Options{VaultThrottle: 2 * time.Second})
	defer broker.Close()

	comps, err := NewComponents(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer comps.Close()

	// Run initial sync.
	stats, err := index.Sync(comps.Index, comps.Store, logger)
	if err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logger.Info("initial sync done",
			slog.Int("indexed", stats.Indexed),
			slog.Int("removed", stats.Removed),
			slog.Int("unchanged", stats.Skipped),
			slog.Int("failed", stats.Failed))
	}

	apiRouter := api.NewRouter(comps.Notes, comps.Lookups, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	// Health check and metrics endpoints (unauthenticated).
	r.Get("/health/live", api.Health)
	r.Get("/health/ready", api.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Vault changes made outside shelfmark reach the index and SSE clients.
	watcher := index.NewWatcher(comps.Index, comps.Store, comps.Store.Root(), logger,
		index.WithOnChange(func(c index.Change) {
			broker.PublishNoteEvent(string(c.Kind), c.Path)
		}))
	g.Go(func() error {
		if err := watcher.Run(gCtx); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shut down when the caller's context (signal) or a sibling ends.
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr only, since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.logger == nil {
		logger, closeLog, err := NewLogger(app.config.App, os.Stderr, LogFormatText)
		if err != nil {
			return err
		}
		defer closeLog()
		app.logger = logger
		slog.SetDefault(logger)
	}

	comps, err := NewComponents(app.config, app.logger, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	if _, err := index.Sync(comps.Index, comps.Store, app.logger); err != nil {
		app.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(comps.Notes, comps.Lookups, app.version)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
