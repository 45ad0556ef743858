package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pkgscope/internal/extract"
)

// Watcher watches directory roots for archive changes and rescans a
// changed file once its events have settled past the debounce window.
// Rescan results are delivered through the onResult callback; watch
// rescans are not recorded as runs in the store.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	scanner     *Scanner
	log         *zap.Logger
	roots       []string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	onResult    func(Result)
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for status displays and tests.
type WatcherStats struct {
	Created       int
	Modified      int
	Removed       int
	Rescans       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// NewWatcher creates a Watcher over the given roots. A non-positive
// debounce falls back to 500ms.
func NewWatcher(scanner *Scanner, roots []string, debounce time.Duration, onResult func(Result), log *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}

	w := &Watcher{
		watcher:     watcher,
		scanner:     scanner,
		log:         log,
		roots:       roots,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		onResult:    onResult,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	return w, nil
}

// Start registers the roots and begins watching. This method is
// non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	for _, root := range w.roots {
		if err := w.addRoot(root); err != nil {
			// Roots may appear later; keep watching the rest.
			w.log.Warn("failed to watch root", zap.String("root", root), zap.Error(err))
			continue
		}
		w.log.Info("watching directory", zap.String("root", root))
	}

	go w.run(ctx)

	return nil
}

// addRoot registers root and every non-hidden directory below it.
// fsnotify watches are not recursive, so each directory is added
// individually.
func (w *Watcher) addRoot(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && strings.HasPrefix(name, ".") && !allowedHidden[name] {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("failed to close watcher", zap.Error(err))
	}
	w.log.Info("watcher stopped")
}

// run is the main event loop for the watcher.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Batches rapid changes before rescanning
	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watcher context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents()
		}
	}
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories must be added to the watch list by hand.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.log.Warn("failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	}

	if !extract.Supported(event.Name) {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		eventType = "remove"
	default:
		return // Ignore chmod, etc.
	}

	w.log.Debug("archive event", zap.String("type", eventType), zap.String("path", event.Name))

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType

	switch eventType {
	case "create":
		w.stats.Created++
	case "modify":
		w.stats.Modified++
	case "remove":
		w.stats.Removed++
	}

	// Debounce: record the event for later processing
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebouncedEvents rescans files whose events have settled past
// the debounce window.
func (w *Watcher) processDebouncedEvents() {
	w.mu.Lock()
	now := time.Now()
	toProcess := make([]string, 0)

	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			toProcess = append(toProcess, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range toProcess {
		w.rescan(path)
	}
}

// rescan re-extracts patterns from a settled file and delivers the
// result. Files removed since their last event are skipped.
func (w *Watcher) rescan(path string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			w.log.Debug("file removed before rescan", zap.String("path", path))
			return
		}
		w.log.Error("failed to stat changed file", zap.String("path", path), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	res := w.scanner.scanOne(path)

	w.mu.Lock()
	w.stats.Rescans++
	if res.Err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	if w.onResult != nil {
		w.onResult(res)
	}
}

// Stats returns a copy of the current watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the watcher is currently running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories currently being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
