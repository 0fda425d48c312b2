package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Reloader watches a config file and hands every valid new version to apply.
// Invalid versions are logged and ignored, so the previous config stays in effect.
type Reloader struct {
	watcher  *fsnotify.Watcher
	path     string
	apply    func(*Config)
	logger   *zap.Logger
	debounce time.Duration
}

// NewReloader creates a file watcher for path. The parent directory is watched
// so that editors replacing the file are still noticed.
func NewReloader(path string, apply func(*Config), logger *zap.Logger) (*Reloader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to resolve path", Cause: err}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, &Error{Path: abs, Message: "failed to watch config directory", Cause: err}
	}

	return &Reloader{
		watcher:  watcher,
		path:     abs,
		apply:    apply,
		logger:   logger,
		debounce: defaultDebounce,
	}, nil
}

// Run watches for changes and reloads the config. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait after the last write before reloading
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(r.debounce)
			} else {
				timer.Stop()
				timer.Reset(r.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			r.reload()

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("Config watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) reload() {
	cfg, err := LoadConfig(r.path)
	if err != nil {
		r.logger.Warn("Config reload failed; keeping previous config", zap.Error(err))
		return
	}
	r.logger.Info("Config reloaded", zap.String("path", r.path))
	r.apply(cfg)
}
