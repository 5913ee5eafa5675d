// Package watcher tracks external file changes between loop iterations so
// the planner sees a workspace that moved under it.
package watcher

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"gofer/internal/logging"
)

// skipDirs are directories never worth watching.
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	".idea": true, ".vscode": true, "__pycache__": true,
	"target": true, "build": true, "dist": true,
}

// Config holds watcher settings.
type Config struct {
	Enabled    bool
	DebounceMs int
	MaxWatches int
}

// Watcher accumulates debounced change notifications. The agent loop drains
// them once per iteration via TakeChanged.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	workDir    string
	debounce   time.Duration
	maxWatches int

	changed map[string]time.Time
	mu      sync.Mutex

	done     chan struct{}
	running  bool
	stopOnce sync.Once
}

// New creates a watcher for workDir. A disabled config yields a no-op
// watcher so callers need no nil checks.
func New(workDir string, cfg Config) (*Watcher, error) {
	if !cfg.Enabled {
		return &Watcher{workDir: workDir}, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceMs := cfg.DebounceMs
	if debounceMs <= 0 {
		debounceMs = 500
	}
	maxWatches := cfg.MaxWatches
	if maxWatches <= 0 {
		maxWatches = 1000
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		workDir:    workDir,
		debounce:   time.Duration(debounceMs) * time.Millisecond,
		maxWatches: maxWatches,
		changed:    make(map[string]time.Time),
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching. No-op when disabled.
func (w *Watcher) Start() error {
	if w.fsWatcher == nil {
		return nil
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addDirectories(); err != nil {
		return err
	}

	go w.processEvents()
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() error {
	if w.fsWatcher == nil {
		return nil
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.stopOnce.Do(func() {
		close(w.done)
	})
	return w.fsWatcher.Close()
}

// TakeChanged returns the debounced set of changed paths and clears it.
// Paths seen more recently than the debounce window stay pending.
func (w *Watcher) TakeChanged() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.changed) == 0 {
		return nil
	}

	now := time.Now()
	var paths []string
	for path, seen := range w.changed {
		if now.Sub(seen) >= w.debounce {
			paths = append(paths, path)
			delete(w.changed, path)
		}
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) addDirectories() error {
	watchCount := 0
	return filepath.Walk(w.workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if watchCount >= w.maxWatches {
			return filepath.SkipDir
		}
		if !info.IsDir() {
			return nil
		}
		if skipDirs[info.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return nil
		}
		watchCount++
		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	base := filepath.Base(path)

	// Editor temp files and our own atomic-write temps.
	if len(base) > 0 && (base[0] == '.' || base[0] == '#' || base[len(base)-1] == '~') {
		return
	}

	// Watch newly created directories too.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skipDirs[info.Name()] {
				_ = w.fsWatcher.Add(path)
			}
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(w.workDir, path)
	if err != nil {
		rel = path
	}

	w.mu.Lock()
	w.changed[rel] = time.Now()
	w.mu.Unlock()
}
