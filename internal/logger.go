package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewLogger builds the slog logger described by cfg, writing to w and, when
// cfg.LogFile is set, appending to that file too. format is used when cfg
// does not name one. The returned close function releases the log file.
func NewLogger(cfg ApplicationConfig, w io.Writer, format string) (*slog.Logger, func() error, error) {
	closeFn := func() error { return nil }
	if cfg.LogFile != "" {
		if dir := filepath.Dir(cfg.LogFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closeFn = f.Close
	}

	if cfg.LogFormat != "" {
		format = cfg.LogFormat
	}
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if format == LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeFn, nil
}
