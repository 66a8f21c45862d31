package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lazypower/ecan/internal/logging"
)

// debounce collapses the burst of events editors emit for one save.
const debounce = 200 * time.Millisecond

// Watch reloads path into h whenever the file changes, until ctx is done.
// A file that fails to load or validate leaves the previous configuration
// in place. onReload, if non-nil, is called after each successful reload.
//
// The parent directory is watched rather than the file so that
// rename-over-write saves are seen.
func Watch(ctx context.Context, path string, h *Holder, logger *zap.Logger, onReload func(Config)) error {
	logger = logging.OrNop(logger)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload rejected", zap.String("path", abs), zap.Error(err))
				continue
			}
			h.Store(cfg)
			logger.Info("config reloaded", zap.String("path", abs))
			if onReload != nil {
				onReload(cfg)
			}
		}
	}
}
