package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch implements ports.Watchable.
// The parent directory is watched so that editors replacing the file via
// rename are still seen. Bursts of events are coalesced.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	abs, err := filepath.Abs(l.path)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	ch := make(chan struct{}, 1)
	go l.processEvents(ctx, watcher, abs, ch)

	l.logger.Debug("watching definition", "path", abs)
	return ch, nil
}

func (l *Loader) processEvents(ctx context.Context, watcher *fsnotify.Watcher, target string, ch chan<- struct{}) {
	defer close(ch)
	defer watcher.Close()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			l.logger.Debug("definition changed", "path", event.Name, "op", event.Op.String())
			pending = time.After(l.debounce)

		case <-pending:
			pending = nil
			select {
			case ch <- struct{}{}:
			default:
				// A reload is already queued.
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("definition watcher error", "err", err)
		}
	}
}
