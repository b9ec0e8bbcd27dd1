package recommendations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce batches the bursts of writes editors make on save.
const DefaultWatchDebounce = 500 * time.Millisecond

// TemplateWatcher reseeds the library whenever the template file changes.
// Removing the file leaves the seeded templates in place.
type TemplateWatcher struct {
	lib      *Library
	path     string
	debounce time.Duration
	logger   *slog.Logger

	// reseeded is signalled after every reseed attempt; tests hook it.
	reseeded func(n int, err error)
}

// NewTemplateWatcher creates a watcher for path. A non-positive debounce
// selects DefaultWatchDebounce.
func NewTemplateWatcher(lib *Library, path string, debounce time.Duration, logger *slog.Logger) *TemplateWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateWatcher{
		lib:      lib,
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger.With("component", "template-watcher", "path", path),
	}
}

// Run watches until ctx is cancelled. The parent directory is watched rather
// than the file so that editors replacing the file by rename are seen.
func (w *TemplateWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching template file")

	tick := time.NewTicker(w.debounce / 4)
	defer tick.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.logger.Debug("template file changed", "op", ev.Op.String())
			pending = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)

		case now := <-tick.C:
			if pending.IsZero() || now.Sub(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			w.reseed(ctx)
		}
	}
}

func (w *TemplateWatcher) reseed(ctx context.Context) {
	n, err := w.lib.SeedFile(ctx, w.path)
	if err != nil {
		w.logger.Error("reseeding templates failed, keeping previous set", "error", err)
	} else {
		w.logger.Info("templates reseeded", "count", n)
	}
	if w.reseeded != nil {
		w.reseeded(n, err)
	}
}
