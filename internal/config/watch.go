package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stackdump/multidomain-router/internal/logger"
)

// Watch reloads the deploy file at path into p whenever it changes, until
// ctx is done. Edits are debounced by delay. A file that fails to load
// leaves the previous configuration in place. Only the multidomain section
// takes effect without a restart; listener settings are read at startup.
func Watch(ctx context.Context, path string, p *Provider, log logger.Logger, delay time.Duration) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// the directory survives editors that replace the file by renaming
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)

	// every settled event reloads, whatever the mtime
	reload := func() {
		mu.Lock()
		defer mu.Unlock()

		cfg, err := Load(absPath)
		if err != nil {
			log.LogError("failed to reload config, keeping previous", err)
			return
		}
		p.Store(cfg)
		log.LogInfo(fmt.Sprintf("reloaded %s: %d multidomain sites", path, len(cfg.Multidomain.Sites)))
	}

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(delay, reload)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.LogError("config watcher error", err)
		}
	}
}
