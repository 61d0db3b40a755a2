//go:build !prod

package hcc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch generates the entry once, then regenerates it whenever a file under the source
// root changes. It blocks until ctx is cancelled.
func (engine *Engine) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := engine.addWatchDirs(watcher, engine.Config.Source); err != nil {
		return err
	}

	if engine.Config.HotReloadPort > 0 && engine.HotReload == nil {
		engine.HotReload = newHotReload(engine)
		if err := engine.HotReload.Start(); err != nil {
			return err
		}
	}

	engine.regenerate()
	engine.Logger.Info("Watching for changes", "source", engine.Config.Source)

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !engine.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := engine.addWatchDirs(watcher, event.Name); err != nil {
						engine.Logger.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}
			engine.Logger.Debug("Source change detected", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(engine.Config.Debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			engine.regenerate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			engine.Logger.Error("Watcher error", "error", err)
		}
	}
}

func (engine *Engine) regenerate() {
	path, entry, err := engine.generate()
	if err != nil {
		engine.HotReload.Broadcast(Notification{Type: "error", Error: err.Error()})
		return
	}
	engine.HotReload.Broadcast(Notification{Type: "regenerated", Path: path, Files: len(entry.Files), Apis: len(entry.Apis)})
}

// relevant filters out events for the generated outputs and for skipped directories
func (engine *Engine) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == engine.Config.EntryPath() {
		return false
	}
	if types := engine.Config.TypesFile(); types != "" && name == types {
		return false
	}
	rel, err := filepath.Rel(engine.Config.Source, name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "node_modules" || (strings.HasPrefix(part, ".") && part != "." && part != "..") {
			return false
		}
	}
	return true
}

func (engine *Engine) addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (engine *Engine) stopHotReload(ctx context.Context) error {
	if engine.HotReload == nil {
		return nil
	}
	engine.Logger.Debug("Hot reload server stopping")
	return engine.HotReload.Stop(ctx)
}
