// Package watcher reacts to meter exports dropped into the input folder,
// handing settled files to the processing callback.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "spooker/internal/errors"
	"spooker/internal/files"
)

// ProcessFunc handles one settled input file.
type ProcessFunc func(ctx context.Context, path string) error

// Watcher observes the input folder and invokes the callback for new or
// renamed files once they have stopped changing.
type Watcher struct {
	dir         string
	settleDelay time.Duration
	process     ProcessFunc
	logger      *slog.Logger

	mu       sync.Mutex
	pending  map[string]*time.Timer
	inFlight map[string]bool
}

// New creates a watcher over dir. The settle delay lets mail clients and
// browsers finish writing attachments before a file is picked up.
func New(dir string, settleDelay time.Duration, process ProcessFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:         dir,
		settleDelay: settleDelay,
		process:     process,
		logger:      logger,
		pending:     make(map[string]*time.Timer),
		inFlight:    make(map[string]bool),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.FileProcessingf(w.dir, "create watcher: %v", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return apperrors.FileProcessingf(w.dir, "watch directory: %v", err)
	}
	w.logger.Info("watching input folder",
		slog.String("dir", w.dir),
		slog.Duration("settle_delay", w.settleDelay))

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !files.IsInputFile(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

// schedule (re)arms the settle timer for a path. Every further event on
// the same file pushes processing back by the full delay.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight[path] {
		w.logger.Debug("file already being processed, ignoring event",
			slog.String("path", path))
		return
	}

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settleDelay, func() {
		w.fire(ctx, path)
	})
}

func (w *Watcher) fire(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.inFlight[path] {
		w.mu.Unlock()
		return
	}
	w.inFlight[path] = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.inFlight, path)
		w.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}

	w.logger.Info("input file settled, processing",
		slog.String("file", filepath.Base(path)))
	if err := w.process(ctx, path); err != nil {
		w.logger.Error("processing failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
