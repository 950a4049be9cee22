package locale

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadDebounce coalesces bursts of file events (editors and the translator
// write many files at once).
const ReloadDebounce = 250 * time.Millisecond

// Watch reloads dir whenever a locale file is created, changed or removed
// and passes the new catalog to onReload. It blocks until ctx is done.
func Watch(ctx context.Context, dir string, logger *zap.Logger, onReload func(*Catalog)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(ReloadDebounce)
			} else {
				timer.Reset(ReloadDebounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			cat, err := LoadDir(dir)
			if err != nil {
				logger.Warn("locale reload reported problems", zap.String("dir", dir), zap.Error(err))
			}
			logger.Debug("locale catalog reloaded", zap.Int("languages", len(cat.files)))
			onReload(cat)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("locale watcher error", zap.Error(err))
		}
	}
}
