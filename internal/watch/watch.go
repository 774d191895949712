// Package watch re-runs a callback when script files change on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors files and directories for script changes
type Watcher struct {
	watcher    *fsnotify.Watcher
	paths      []string
	extensions map[string]bool
	debounce   time.Duration
	onChange   func(path string)
	log        *zap.Logger

	// Track last change per file to debounce editors that write several times
	mu         sync.Mutex
	lastChange map[string]time.Time
	started    bool
	done       chan struct{}
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger used for watch events and errors
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// New creates a watcher over paths. Only files whose extension is listed are
// reported; an empty list reports every file.
func New(paths, extensions []string, debounce time.Duration, onChange func(path string), opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:    fsWatcher,
		paths:      paths,
		extensions: make(map[string]bool, len(extensions)),
		debounce:   debounce,
		onChange:   onChange,
		log:        zap.NewNop(),
		lastChange: make(map[string]time.Time),
		done:       make(chan struct{}),
	}
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds the watch list and begins the event loop. It returns once every
// path is registered; events are delivered until ctx is cancelled or Close
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := w.watchDirRecursive(path); err != nil {
				return err
			}
			w.log.Info("watching directory", zap.String("path", path))
			continue
		}
		// Watch the parent so editors that replace the file are still seen
		if err := w.watcher.Add(filepath.Dir(path)); err != nil {
			return err
		}
		w.log.Info("watching file", zap.String("path", path))
	}

	w.started = true
	go w.eventLoop(ctx)
	return nil
}

// Close stops the watcher and waits for the event loop to exit
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	return err
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func (w *Watcher) watchDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

// eventLoop processes file system events
func (w *Watcher) eventLoop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only handle write and create events
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// New directories join the watch list
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchDirRecursive(event.Name); err != nil {
						w.log.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
					continue
				}
			}

			if !w.matches(event.Name) || !w.settle(event.Name, time.Now()) {
				continue
			}

			w.log.Debug("file changed", zap.String("path", event.Name))
			w.onChange(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", zap.Error(err))
		}
	}
}

// matches reports whether path has a watched extension
func (w *Watcher) matches(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// settle reports whether a change to path at now should be delivered, i.e.
// the previous delivery for the same file is older than the debounce window.
func (w *Watcher) settle(path string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if last, ok := w.lastChange[path]; ok && now.Sub(last) < w.debounce {
		return false
	}
	w.lastChange[path] = now
	return true
}
