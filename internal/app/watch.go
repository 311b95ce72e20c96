package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/autoregister/internal/ctxlog"
)

// watchDebounce collapses bursts of file events, such as a compiler writing
// many class files, into a single rebuild.
const watchDebounce = 300 * time.Millisecond

// watch rebuilds whenever a rules path or the input changes, until ctx is
// done. Failed builds are logged and do not stop watching.
func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer w.Close()

	roots := append([]string{a.config.Input}, a.config.RulesPaths...)
	for _, root := range roots {
		if err := addWatchTree(w, root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}
	logger.Info("Watching for changes.", "paths", roots)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("Watch stopped.")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if within(event.Name, a.config.Output) {
				continue
			}
			logger.Debug("Change detected.", "path", event.Name, "op", event.Op.String())
			// New directories below the input must be watched too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchTree(w, event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if _, err := a.Build(ctx); err != nil {
				logger.Error("Rebuild failed.", "error", err)
				continue
			}
			logger.Info("Rebuild finished.", "build", a.LastBuild().Count)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)
		}
	}
}

// addWatchTree watches path and, for directories, every directory below it.
// A file is watched through its parent directory so editors that replace
// files on save are still seen.
func addWatchTree(w *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
