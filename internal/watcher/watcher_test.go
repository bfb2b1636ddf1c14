package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recorder struct {
	mu    sync.Mutex
	paths []string
	done  chan string
}

func newRecorder() *recorder {
	return &recorder{done: make(chan string, 16)}
}

func (r *recorder) process(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.done <- path
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func waitFor(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for processing")
		return ""
	}
}

func startWatcher(t *testing.T, dir string, settle time.Duration, rec *recorder) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := New(dir, settle, rec.process, testLogger())
	go func() {
		_ = w.Run(ctx)
	}()
	// Give the watcher a moment to register before files are dropped.
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestWatcherProcessesSettledFile(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	cancel := startWatcher(t, dir, 50*time.Millisecond, rec)
	defer cancel()

	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b\n"), 0o644))

	got := waitFor(t, rec.done)
	assert.Equal(t, path, got)
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	cancel := startWatcher(t, dir, 50*time.Millisecond, rec)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.csv"), []byte("x"), 0o644))

	got := waitFor(t, rec.done)
	assert.Equal(t, filepath.Join(dir, "export.csv"), got)
	assert.Equal(t, 1, rec.count())
}

func TestWatcherDebouncesChunkedWrites(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	cancel := startWatcher(t, dir, 150*time.Millisecond, rec)
	defer cancel()

	path := filepath.Join(dir, "export.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("chunk\n")
		require.NoError(t, err)
		require.NoError(t, f.Sync())
		time.Sleep(30 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	waitFor(t, rec.done)
	// The chunked write must collapse into a single processing run.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestWatcherStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	w := New(dir, 50*time.Millisecond, rec.process, testLogger())

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), time.Millisecond, newRecorder().process, testLogger())
	err := w.Run(context.Background())
	require.Error(t, err)
}
