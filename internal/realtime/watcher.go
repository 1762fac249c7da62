// Package realtime feeds filesystem notifications for realtime watch roots
// into the engine between scan cycles.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fim-go/internal/checksum"
	"fim-go/internal/fim"
)

// DefaultDebounce is used when New is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// PathChecker re-examines a single path. *fim.Engine implements it.
type PathChecker interface {
	CheckPath(path string, audit *checksum.Audit) error
}

// Watcher collects fsnotify events, merges the ones that arrive within the
// debounce interval and hands each changed path to a PathChecker once.
type Watcher struct {
	checker  PathChecker
	logger   fim.Logger
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]fsnotify.Op
	dirs    map[string]struct{}
}

var _ fim.DirWatcher = (*Watcher)(nil)

// New creates a Watcher. Directories are added with AddDir, normally by the
// engine while it walks realtime roots.
func New(checker PathChecker, debounce time.Duration, logger fim.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = fim.NewNopLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		checker:  checker,
		logger:   logger,
		fsw:      fsw,
		debounce: debounce,
		pending:  make(map[string]fsnotify.Op),
		dirs:     make(map[string]struct{}),
	}, nil
}

// AddDir starts watching dir. Adding the same directory twice is a no-op.
// New subdirectories are picked up when the engine walks them after a
// create event, so only directories need watching.
func (w *Watcher) AddDir(dir string) error {
	w.mu.Lock()
	_, ok := w.dirs[dir]
	w.mu.Unlock()
	if ok {
		return nil
	}

	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w.mu.Lock()
	w.dirs[dir] = struct{}{}
	w.mu.Unlock()
	w.logger.Debug("directory added to realtime monitoring", "path", dir)
	return nil
}

// Len returns the number of watched directories.
func (w *Watcher) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

// Run processes events until ctx is cancelled or the watcher is closed.
// Pending paths are flushed before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.Flush()
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.Flush()
				return nil
			}
			w.logger.Warn("realtime watcher error", "error", err)

		case <-ticker.C:
			w.Flush()

		case <-ctx.Done():
			w.Flush()
			return ctx.Err()
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		// fsnotify drops the watch itself; forget it so a re-created
		// directory is added again.
		w.mu.Lock()
		delete(w.dirs, ev.Name)
		w.mu.Unlock()
	}

	w.queue(ev.Name, ev.Op)
}

func (w *Watcher) queue(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] |= op
}

// Flush checks every pending path now.
func (w *Watcher) Flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		w.logger.Debug("realtime event", "path", p, "op", batch[p].String())
		err := w.checker.CheckPath(p, nil)
		switch {
		case err == nil:
		case errors.Is(err, fim.ErrNotMonitored), errors.Is(err, os.ErrNotExist):
			w.logger.Debug("realtime event outside monitored paths", "path", p)
		default:
			w.logger.Warn("checking changed path", "path", p, "error", err)
		}
	}
}
