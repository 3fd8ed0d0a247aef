package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/storage"
)

// ChangeKind says what happened to a note.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// Change is one index mutation made by Sync or the Watcher.
type Change struct {
	Kind ChangeKind
	Path string // vault-relative, slash separated
}

// Watcher keeps the index in step with the vault while shelfmark serves.
//
// File system events are collected per path and settled after a quiet
// period, so that a burst (editor save, atomic rename) becomes a single
// re-read of the file. The index checksum decides whether anything changed.
type Watcher struct {
	db       *DB
	store    storage.Provider
	root     string
	logger   *slog.Logger
	debounce time.Duration
	onChange func(Change)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before pending paths are settled.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnChange registers fn to be called after every index mutation.
func WithOnChange(fn func(Change)) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// NewWatcher creates a Watcher for the vault at root.
func NewWatcher(db *DB, store storage.Provider, root string, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{db: db, store: store, root: root, logger: logger, debounce: 150 * time.Millisecond}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirs(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.root))

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			for rel := range pending {
				w.settle(rel)
			}
			clear(pending)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if w.watchNewDir(fw, ev.Name, pending) {
						timer.Reset(w.debounce)
					}
					continue
				}
			}
			rel, ok := w.noteRel(ev.Name)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watcher: events dropped, resyncing")
				w.resync()
				continue
			}
			w.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// noteRel maps an absolute event path to a vault-relative note path.
// Hidden files and anything below a hidden directory are ignored.
func (w *Watcher) noteRel(abs string) (string, bool) {
	if !strings.HasSuffix(abs, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return rel, true
}

// settle re-reads rel and updates the index to match the disk.
func (w *Watcher) settle(rel string) {
	prev, err := w.db.GetChecksum(rel)
	if err != nil {
		w.logger.Warn("watcher: checksum lookup failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	data, err := w.store.Read(rel)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		if prev == "" {
			return
		}
		if err := w.db.DeleteNote(rel); err != nil {
			w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
			return
		}
		w.emit(Deleted, rel)
		return
	case err != nil:
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	if storage.Checksum(data) == prev {
		return
	}
	if err := IndexFile(w.db, rel, data, time.Time{}); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	kind := Updated
	if prev == "" {
		kind = Created
	}
	w.emit(kind, rel)
}

// watchNewDir starts watching a directory that appeared after Run began
// and queues the notes already inside it. Hidden directories are skipped;
// the result reports whether dir is now watched.
func (w *Watcher) watchNewDir(fw *fsnotify.Watcher, dir string, pending map[string]struct{}) bool {
	if strings.HasPrefix(filepath.Base(dir), ".") {
		return false
	}
	if err := addDirs(fw, dir); err != nil {
		w.logger.Warn("watcher: add dir failed", slog.String("path", dir), slog.String("error", err.Error()))
		return false
	}
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, ok := w.noteRel(p); ok {
			pending[rel] = struct{}{}
		}
		return nil
	})
	return true
}

// resync falls back to a full Sync and reports its effect as changes.
func (w *Watcher) resync() {
	stats, err := Sync(w.db, w.store, w.logger)
	if err != nil {
		w.logger.Warn("watcher: resync failed", slog.String("error", err.Error()))
		return
	}
	for _, c := range stats.Changes {
		w.emit(c.Kind, c.Path)
	}
}

func (w *Watcher) emit(kind ChangeKind, rel string) {
	w.logger.Debug("watcher: index changed", slog.String("path", rel), slog.String("change", string(kind)))
	if w.onChange != nil {
		w.onChange(Change{Kind: kind, Path: rel})
	}
}

// addDirs watches root and every non-hidden directory below it.
func addDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}
