package app

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/flowactor/internal/engine"
	"github.com/specialistvlad/flowactor/internal/value"
)

// watchDebounce coalesces the burst of events a single save produces.
var watchDebounce = 100 * time.Millisecond

// watch reloads and re-runs the graph whenever one of its files changes,
// until ctx ends. A graph that fails to load or run is logged and the
// previous one stays in place.
func (a *App) watch(ctx context.Context, args []value.Value, observers []engine.Observer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs, err := watchedDirs(a.config.GraphPath)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	a.logger.Info("👀 Watching for changes.", "path", a.config.GraphPath, "directories", len(dirs))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch stopped.")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".hcl") || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			a.logger.Debug("Graph file changed.", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("File watcher error.", "error", err)
		case <-timer.C:
			g, err := a.LoadGraph()
			if err != nil {
				a.logger.Error("Reload failed, keeping previous graph.", "error", err)
				continue
			}
			if err := a.execute(ctx, g, args, observers); err != nil {
				a.logger.Error("Run failed, waiting for changes.", "error", err)
			}
		}
	}
}

// watchedDirs lists the directories to watch for path: the parent of a file,
// or a directory and all directories below it.
func watchedDirs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{filepath.Dir(path)}, nil
	}
	var dirs []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	return dirs, err
}
