// Package watcher records filesystem changes under a project root while an
// agent works. Changes are buffered and drained by polling.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/tOgg1/afk/internal/logging"
)

// DefaultIgnorePatterns skips version control, dependency, cache and
// bytecode paths.
var DefaultIgnorePatterns = []string{
	".git",
	"__pycache__",
	"node_modules",
	".venv",
	".afk",
	"target",
	".mypy_cache",
	".pytest_cache",
	".ruff_cache",
	"*.pyc",
	"*.pyo",
}

// ChangeType is the kind of filesystem change observed.
type ChangeType int

const (
	Created ChangeType = iota
	Modified
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is one observed change.
type FileChange struct {
	Path       string
	ChangeType ChangeType
	Timestamp  time.Time
}

// Watcher watches a directory tree recursively.
type Watcher struct {
	root   string
	ignore []string

	mu      sync.Mutex
	changes []FileChange
	notify  *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	logger zerolog.Logger
}

// New creates a watcher for root using the default ignore patterns.
func New(root string) *Watcher {
	return &Watcher{
		root:   root,
		ignore: append([]string(nil), DefaultIgnorePatterns...),
		logger: logging.Component("watcher"),
	}
}

// WithIgnorePatterns replaces the ignore list.
func (w *Watcher) WithIgnorePatterns(patterns []string) *Watcher {
	w.mu.Lock()
	w.ignore = append([]string(nil), patterns...)
	w.mu.Unlock()
	return w
}

// AddIgnorePattern appends one pattern to the ignore list.
func (w *Watcher) AddIgnorePattern(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return
	}
	w.mu.Lock()
	w.ignore = append(w.ignore, pattern)
	w.mu.Unlock()
}

// IgnorePatterns returns a copy of the current ignore list.
func (w *Watcher) IgnorePatterns() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.ignore...)
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// ShouldIgnore reports whether path matches an ignore pattern. Patterns of the
// form "*.ext" match by suffix, anything else by substring. Paths under the
// root are matched relative to it.
func (w *Watcher) ShouldIgnore(path string) bool {
	w.mu.Lock()
	patterns := w.ignore
	w.mu.Unlock()

	rel := path
	if r, err := filepath.Rel(w.root, path); err == nil && !strings.HasPrefix(r, "..") {
		rel = r
	}
	rel = filepath.ToSlash(rel)
	return matchesAny(rel, patterns)
}

func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "*.") {
			if strings.HasSuffix(path, pattern[1:]) {
				return true
			}
			continue
		}
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.notify != nil {
		return nil
	}

	root, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory", root)
	}
	w.root = root

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	w.notify = notify
	w.done = make(chan struct{})

	patterns := w.ignore
	if err := addTree(notify, root, root, patterns); err != nil {
		_ = notify.Close()
		w.notify = nil
		return err
	}

	w.wg.Add(1)
	go w.run(notify, w.done)
	w.logger.Debug().Str("root", root).Msg("watcher started")
	return nil
}

// Stop ends watching and waits for the event goroutine to exit. Buffered
// changes are kept until drained.
func (w *Watcher) Stop() {
	w.mu.Lock()
	notify := w.notify
	done := w.done
	w.notify = nil
	w.done = nil
	w.mu.Unlock()

	if notify == nil {
		return
	}
	close(done)
	_ = notify.Close()
	w.wg.Wait()
	w.logger.Debug().Str("root", w.root).Msg("watcher stopped")
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.notify != nil
}

// GetChanges drains and returns buffered changes in arrival order.
func (w *Watcher) GetChanges() []FileChange {
	w.mu.Lock()
	defer w.mu.Unlock()
	changes := w.changes
	w.changes = nil
	return changes
}

// PendingCount returns the number of buffered changes.
func (w *Watcher) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.changes)
}

// Clear discards buffered changes.
func (w *Watcher) Clear() {
	w.mu.Lock()
	w.changes = nil
	w.mu.Unlock()
}

func (w *Watcher) run(notify *fsnotify.Watcher, done <-chan struct{}) {
	defer w.wg.Done()
	for {
		select {
		case <-done:
			return
		case event, ok := <-notify.Events:
			if !ok {
				return
			}
			w.handle(notify, event)
		case err, ok := <-notify.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(notify *fsnotify.Watcher, event fsnotify.Event) {
	if w.ShouldIgnore(event.Name) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = Created
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTree(notify, w.root, event.Name, w.IgnorePatterns()); err != nil {
				w.logger.Debug().Err(err).Str("path", event.Name).Msg("watch new directory")
			}
			return
		}
	case event.Has(fsnotify.Write):
		change = Modified
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change = Deleted
	default:
		return
	}

	w.mu.Lock()
	w.changes = append(w.changes, FileChange{
		Path:       event.Name,
		ChangeType: change,
		Timestamp:  time.Now(),
	})
	w.mu.Unlock()
}

// addTree registers dir and every non-ignored directory below it.
func addTree(notify *fsnotify.Watcher, root, dir string, patterns []string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("walk %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && matchesAny(filepath.ToSlash(rel), patterns) {
				return filepath.SkipDir
			}
		}
		if err := notify.Add(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
