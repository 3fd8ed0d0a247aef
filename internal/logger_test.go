package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_FormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(ApplicationConfig{LogLevel: slog.LevelWarn}, &buf, LogFormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	logger.Info("dropped")
	logger.Warn("kept", slog.String("title", "Dune"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["msg"] != "kept" || rec["title"] != "Dune" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLogger_ConfigFormatWins(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(ApplicationConfig{LogFormat: LogFormatText}, &buf, LogFormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestNewLogger_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "shelfmark.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(ApplicationConfig{LogFile: path}, &buf, LogFormatText)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("note written", slog.String("path", "Movies/Solaris.md"))
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "previous run\n") {
		t.Errorf("log file was truncated: %q", got)
	}
	if !strings.Contains(got, "path=Movies/Solaris.md") {
		t.Errorf("log file missing record: %q", got)
	}
	if !strings.Contains(buf.String(), "note written") {
		t.Errorf("stdout writer missing record: %q", buf.String())
	}
}
