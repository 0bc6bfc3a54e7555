// Package watch calls a function whenever one of a set of files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sadopc/sqlcheck/internal/logging"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 100 * time.Millisecond

// Files runs fn each time one of paths is written, created or renamed into
// place, until ctx is cancelled. Bursts of events within debounce collapse
// into one call. The parent directories are watched rather than the files
// so that editors that save by rename keep triggering. fn runs on the
// calling goroutine.
func Files(ctx context.Context, paths []string, debounce time.Duration, logger *zap.Logger, fn func(changed string)) error {
	logger = logging.OrNop(logger)
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	wanted := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	// Debounce timer
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var last string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !wanted[name] {
				continue
			}
			logger.Debug("change detected", zap.String("path", name), zap.Stringer("op", event.Op))
			last = name
			timer.Reset(debounce)

		case <-timer.C:
			fn(last)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
