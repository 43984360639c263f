// Package watcher reruns tests when files inside the targets change.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultIgnore lists entries holding dependencies, build output or test
// reports. Changes to them are produced by the test runs themselves.
// Entries are matched against base names and may be glob patterns.
var DefaultIgnore = []string{
	"node_modules", "vendor", "target", "build", "dist", "_build", "bin", "obj",
	"__pycache__", "deps", ".stack-work", "*.egg-info", "pip-wheel-metadata",
	"TestResults", "coverage", "htmlcov", "cover", "test-results", "junit*.xml",
	"coverage.xml", "coverage.out", "lcov.info", "*.pyc", "*.class",
}

// Watcher monitors project trees for changes.
type Watcher struct {
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
	ignore     map[string]bool
	patterns   []string
	logger     *slog.Logger
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce duration for file change events.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithExtensions restricts the watched files to the given extensions.
// Without it every file counts.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.extensions = exts
	}
}

// WithIgnore adds names or glob patterns that are never watched.
func WithIgnore(names ...string) Option {
	return func(w *Watcher) {
		w.addIgnore(names...)
	}
}

// WithLogger reports watch errors to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a new file watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		debounce: 500 * time.Millisecond,
		ignore:   make(map[string]bool, len(DefaultIgnore)),
		logger:   slog.Default(),
	}
	w.addIgnore(DefaultIgnore...)

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// WatchDir adds a directory and its subdirectories to the watch list.
func (w *Watcher) WatchDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) addIgnore(names ...string) {
	for _, n := range names {
		if strings.ContainsAny(n, "*?[") {
			w.patterns = append(w.patterns, n)
			continue
		}
		w.ignore[n] = true
	}
}

func (w *Watcher) skipped(name string) bool {
	if strings.HasPrefix(name, ".") || w.ignore[name] {
		return true
	}
	for _, pattern := range w.patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Events returns a channel that emits when relevant files change.
// The channel is debounced so a burst of writes triggers one run.
func (w *Watcher) Events(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		var timer *time.Timer
		var timerCh <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.relevant(event) {
					continue
				}

				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C

			case <-timerCh:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
				timerCh = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", "error", err)
			}
		}
	}()

	return out
}

// relevant filters events and picks up directories created after WatchDir.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !isChangeEvent(event.Op) || w.skipped(filepath.Base(event.Name)) {
		return false
	}
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.WatchDir(event.Name); err != nil {
				w.logger.Warn("watch new directory", "dir", event.Name, "error", err)
			}
			return false
		}
	}
	return w.hasRelevantExtension(event.Name)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isChangeEvent(op fsnotify.Op) bool {
	return op&fsnotify.Write == fsnotify.Write ||
		op&fsnotify.Create == fsnotify.Create ||
		op&fsnotify.Remove == fsnotify.Remove ||
		op&fsnotify.Rename == fsnotify.Rename
}

func (w *Watcher) hasRelevantExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
