package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SourceWatcher watches a fixed set of files and emits debounced change
// batches. Sibling files in the same directories, including the source
// lock files, are ignored.
type SourceWatcher struct {
	paths  map[string]struct{}
	dirs   []string
	opts   Options
	logger *slog.Logger

	fsWatcher *fsnotify.Watcher
	poller    *PollingWatcher
	debouncer *Debouncer

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a watcher for paths. It uses fsnotify unless that fails to
// initialize or opts.ForcePolling is set.
func New(paths []string, opts Options, logger *slog.Logger) (*SourceWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.WithDefaults()

	w := &SourceWatcher{
		paths:     make(map[string]struct{}, len(paths)),
		opts:      opts,
		logger:    logger,
		debouncer: NewDebouncer(opts.Debounce, logger),
		stopCh:    make(chan struct{}),
	}

	seenDirs := make(map[string]struct{})
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve absolute path: %w", err)
		}
		a = filepath.Clean(a)
		w.paths[a] = struct{}{}
		abs = append(abs, a)
		dir := filepath.Dir(a)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsWatcher = fsw
		} else {
			logger.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
		}
	}
	if w.fsWatcher == nil {
		w.poller = NewPollingWatcher(abs, opts.PollInterval)
	}
	return w, nil
}

// Polling reports whether the watcher runs in polling mode.
func (w *SourceWatcher) Polling() bool { return w.poller != nil }

// Changes returns debounced change batches. The channel is closed by Stop.
func (w *SourceWatcher) Changes() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Start watches until ctx is done or Stop is called. If a directory cannot
// be watched with fsnotify, the watcher switches to polling.
func (w *SourceWatcher) Start(ctx context.Context) error {
	if w.fsWatcher != nil {
		if err := w.addDirs(); err != nil {
			w.logger.Warn("fsnotify_watch_failed", slog.String("error", err.Error()))
			_ = w.fsWatcher.Close()
			w.fsWatcher = nil
			abs := make([]string, 0, len(w.paths))
			for p := range w.paths {
				abs = append(abs, p)
			}
			w.poller = NewPollingWatcher(abs, w.opts.PollInterval)
		}
	}

	w.logger.Info("source_watch_started",
		slog.Int("files", len(w.paths)),
		slog.Bool("polling", w.poller != nil))

	if w.poller != nil {
		return w.runPolling(ctx)
	}
	return w.runFsnotify(ctx)
}

func (w *SourceWatcher) addDirs() error {
	for _, dir := range w.dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}

func (w *SourceWatcher) runFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("source_watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *SourceWatcher) runPolling(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range w.poller.Events() {
			w.debouncer.Add(ev)
		}
	}()

	err := w.poller.Start(ctx)
	<-done
	if ctx.Err() != nil {
		w.Stop()
	}
	return err
}

func (w *SourceWatcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if _, ok := w.paths[path]; !ok {
		return
	}

	var op Operation
	switch {
	case ev.Has(fsnotify.Create):
		op = OpCreate
	case ev.Has(fsnotify.Write):
		op = OpModify
	case ev.Has(fsnotify.Remove):
		op = OpDelete
	case ev.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.logger.Debug("source_changed", slog.String("path", path), slog.String("op", op.String()))
	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

// Stop releases watcher resources and closes Changes. Safe to call
// multiple times.
func (w *SourceWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.fsWatcher != nil {
			_ = w.fsWatcher.Close()
		}
		if w.poller != nil {
			w.poller.Stop()
		}
		w.debouncer.Stop()
	})
}
