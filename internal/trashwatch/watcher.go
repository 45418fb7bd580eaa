// Package trashwatch reports objects entering and leaving the trash root,
// whether they were moved by the assistant or by hand.
package trashwatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/jarvis/internal/storage"
)

// Callback receives one trash change. name is the on-disk trash name.
type Callback func(added bool, name string)

const settleDelay = 150 * time.Millisecond

// Watch watches the top level of root until ctx is cancelled. Events are
// debounced: after a burst settles the directory is diffed against the last
// snapshot, so renames and editor temp files never produce phantom changes.
// Only names that follow the trash naming scheme are reported.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb Callback) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("trashwatch: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("trashwatch: %w", err)
	}
	defer w.Close()
	if err := w.Add(root); err != nil {
		return fmt.Errorf("trashwatch: watch %s: %w", root, err)
	}

	known, err := snapshot(root)
	if err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root), slog.Int("entries", len(known)))

	var settle *time.Timer
	var settleCh <-chan time.Time
	schedule := func() {
		if settle == nil {
			settle = time.NewTimer(settleDelay)
			settleCh = settle.C
		} else {
			settle.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			current, err := snapshot(root)
			if err != nil {
				logger.Warn("watcher: rescan failed", slog.String("error", err.Error()))
				continue
			}
			for name := range current {
				if _, ok := known[name]; !ok {
					logger.Debug("watcher: trashed", slog.String("name", name))
					if cb != nil {
						cb(true, name)
					}
				}
			}
			for name := range known {
				if _, ok := current[name]; !ok {
					logger.Debug("watcher: left trash", slog.String("name", name))
					if cb != nil {
						cb(false, name)
					}
				}
			}
			known = current

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func snapshot(root string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("trashwatch: read %s: %w", root, err)
	}
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, _, ok := storage.ParseTrashName(e.Name()); ok {
			out[e.Name()] = struct{}{}
		}
	}
	return out, nil
}
