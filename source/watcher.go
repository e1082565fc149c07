package source

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/mlproject/errors"
	"github.com/teranos/mlproject/logger"
)

// DefaultDebounce collapses bursts of writes from editors and copy tools.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc runs after the watched file settles. Errors are logged and
// watching continues.
type ChangeFunc func() error

// Watcher reports changes to a single source file.
// The parent directory is watched so replace-by-rename saves are seen.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *zap.SugaredLogger
}

// NewWatcher starts watching path. A debounce <= 0 uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.Logger
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: debounce,
		log:      log,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run calls onChange once per settled burst of changes until ctx is done.
// Calls are sequential; a slow onChange delays the next one.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.log.Debugw("Source changed", logger.FieldPath, w.path, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := onChange(); err != nil {
				w.log.Warnw("Re-run after source change failed",
					logger.FieldPath, w.path,
					logger.FieldError, err.Error(),
				)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Source watcher error", logger.FieldError, err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
