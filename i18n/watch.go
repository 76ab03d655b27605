package i18n

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads dir into b whenever a catalog in it changes, until ctx is
// done. Bursts of events are coalesced.
func (b *Bundle) Watch(ctx context.Context, dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer func() { _ = w.Close() }()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != ".yaml" || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				debounce = time.After(100 * time.Millisecond)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("locale watcher error", "dir", dir, "err", err)
			case <-debounce:
				debounce = nil
				if err := b.LoadDir(dir); err != nil {
					logger.Error("reload locales", "dir", dir, "err", err)
					continue
				}
				logger.Info("locales reloaded", "dir", dir)
			}
		}
	}()
	return nil
}
