package cache

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long Watch waits after the last event for a file
// before calling onChange. Writers often emit several events per save.
const DefaultSettle = 500 * time.Millisecond

// Watch monitors path and calls onChange once the file has been written or
// created (renamed into place) and then left alone for settle. It runs
// until ctx is cancelled.
//
// The parent directory is watched rather than the file itself so atomic
// saves (write temp file, rename over target) are observed too.
func Watch(ctx context.Context, path string, settle time.Duration, onChange func()) error {
	if settle <= 0 {
		settle = DefaultSettle
	}
	target := filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	slog.Info("cache: watching for changes", "path", target)

	timer := time.NewTimer(settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("cache: file event", "path", target, "op", event.Op.String())
			timer.Reset(settle)

		case <-timer.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("cache: watcher error", "err", err)
		}
	}
}
