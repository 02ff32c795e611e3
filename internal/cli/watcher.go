package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/weave/internal/errors"
)

// DefaultDebounce groups the bursts of events editors emit on save
const DefaultDebounce = 300 * time.Millisecond

// SourceWatcher reports changes to the Go sources of a set of directories
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

// NewSourceWatcher watches dirs. Directories are watched directly, new
// subdirectories are not picked up until the watcher is recreated.
func NewSourceWatcher(dirs []string, debounce time.Duration, logger *slog.Logger) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.FileSystemErrorCode, "failed to create file watcher", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.WrapFileSystemError("watch", dir, err)
		}
	}

	return &SourceWatcher{watcher: watcher, debounce: debounce, logger: logger}, nil
}

// Run blocks until ctx is done or the watcher is closed. onChange is called
// with the sorted set of changed files once events stop for the debounce
// period. It runs on the watch loop, so events arriving meanwhile are
// grouped into the next call.
func (w *SourceWatcher) Run(ctx context.Context, onChange func(ctx context.Context, files []string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isSourceEvent(event) {
				continue
			}
			w.logger.Debug("source event", "op", event.Op.String(), "file", event.Name)
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			files := make([]string, 0, len(pending))
			for file := range pending {
				files = append(files, file)
			}
			sort.Strings(files)
			clear(pending)

			w.logger.Info("sources changed", "files", len(files))
			onChange(ctx, files)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// Close stops watching
func (w *SourceWatcher) Close() error {
	return w.watcher.Close()
}

// isSourceEvent keeps content changes to non-test Go files
func isSourceEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
}
