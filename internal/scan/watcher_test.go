package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pkgscope/internal/fixtures"
)

func newTestWatcher(t *testing.T, roots []string, debounce time.Duration, onResult func(Result)) *Watcher {
	t.Helper()
	w, err := NewWatcher(newTestScanner(nil), roots, debounce, onResult, zap.NewNop())
	require.NoError(t, err)
	return w
}

func TestWatcherLifecycle(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, []string{dir}, 50*time.Millisecond, nil)

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsWatching())
	assert.Contains(t, w.WatchedDirs(), dir)

	// Second start is a no-op.
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	assert.False(t, w.IsWatching())

	// Second stop is a no-op.
	w.Stop()
}

func TestWatcherStartWithMissingRoot(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope")
	w := newTestWatcher(t, []string{missing, dir}, 50*time.Millisecond, nil)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// The surviving root is still watched.
	assert.Contains(t, w.WatchedDirs(), dir)
}

func TestWatcherHandleEvent(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, []string{dir}, 50*time.Millisecond, nil)
	defer w.watcher.Close()

	appJar := filepath.Join(dir, "app.jar")
	goneAPK := filepath.Join(dir, "gone.apk")

	w.handleEvent(fsnotify.Event{Name: appJar, Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: appJar, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: goneAPK, Op: fsnotify.Remove})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "perm.jar"), Op: fsnotify.Chmod})

	stats := w.Stats()
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Modified)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, goneAPK, stats.LastEventPath)
	assert.Equal(t, "remove", stats.LastEventType)

	w.mu.Lock()
	assert.Len(t, w.debounceMap, 2)
	w.mu.Unlock()
}

func TestWatcherAddsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, []string{dir}, 50*time.Millisecond, nil)
	defer w.watcher.Close()

	sub := filepath.Join(dir, "libs")
	require.NoError(t, os.MkdirAll(sub, 0755))

	w.handleEvent(fsnotify.Event{Name: sub, Op: fsnotify.Create})
	assert.Contains(t, w.WatchedDirs(), sub)

	stats := w.Stats()
	assert.Equal(t, 0, stats.Created, "directory events are not archive events")
}

func TestWatcherRescanOnSettle(t *testing.T) {
	dir := t.TempDir()
	appJar := filepath.Join(dir, "app.jar")
	fixtures.Archive(t, appJar, map[string][]byte{"com/foo/A.class": nil})

	var got []Result
	w := newTestWatcher(t, []string{dir}, 10*time.Second, func(r Result) { got = append(got, r) })
	defer w.watcher.Close()

	// A fresh event stays inside the debounce window.
	w.mu.Lock()
	w.debounceMap[appJar] = time.Now()
	w.mu.Unlock()
	w.processDebouncedEvents()
	assert.Empty(t, got)

	// A settled event fires exactly once.
	w.mu.Lock()
	w.debounceMap[appJar] = time.Now().Add(-time.Hour)
	w.mu.Unlock()
	w.processDebouncedEvents()

	require.Len(t, got, 1)
	assert.Equal(t, appJar, got[0].Path)
	assert.Equal(t, []string{"com.foo.*"}, got[0].Patterns)
	assert.NoError(t, got[0].Err)

	w.processDebouncedEvents()
	assert.Len(t, got, 1, "settled events should be processed once")

	assert.Equal(t, 1, w.Stats().Rescans)
}

func TestWatcherSkipsRemovedFiles(t *testing.T) {
	dir := t.TempDir()

	var got []Result
	w := newTestWatcher(t, []string{dir}, 10*time.Second, func(r Result) { got = append(got, r) })
	defer w.watcher.Close()

	w.mu.Lock()
	w.debounceMap[filepath.Join(dir, "gone.jar")] = time.Now().Add(-time.Hour)
	w.mu.Unlock()
	w.processDebouncedEvents()

	assert.Empty(t, got)
	stats := w.Stats()
	assert.Equal(t, 0, stats.Rescans)
	assert.Equal(t, 0, stats.Errors)
}
