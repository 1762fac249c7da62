package fim

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"fim-go/internal/checksum"
	"fim-go/internal/filter"
)

var (
	// ErrStoreInit is returned when the engine is built without a baseline store.
	ErrStoreInit = errors.New("unable to create baseline store")

	// ErrNoWatches is returned when the engine is built without watch roots.
	ErrNoWatches = errors.New("no directories to check")

	// ErrNotMonitored is returned by CheckPath for paths outside every watch root.
	ErrNotMonitored = errors.New("path is not monitored")
)

// DirWatcher is notified of every directory walked under a realtime watch root.
type DirWatcher interface {
	AddDir(path string) error
}

// EngineParams holds the collaborators of an Engine.
type EngineParams struct {
	Watches    []WatchConfig
	Options    GlobalOptions
	Store      BaselineStore
	Filesystem FilesystemManager
	Owners     OwnerResolver
	Sink       MessageSink

	// Diffs is optional. Without it content capture is a no-op.
	Diffs DiffStore

	Logger Logger
	Clock  Clock
	IDs    IDGenerator

	// Prescanned tells the engine that Store already holds a baseline, so
	// the first cycle reports deletions instead of being a pre-scan.
	Prescanned bool
}

// Engine runs scan cycles over the configured watch roots and reports
// changes against the baseline store.
type Engine struct {
	watches []WatchConfig
	opts    GlobalOptions
	store   BaselineStore
	fsmgr   FilesystemManager
	owners  OwnerResolver
	sink    MessageSink
	diffs   DiffStore
	logger  Logger
	clock   Clock
	idgen   IDGenerator
	sleep   func(time.Duration)

	// cycleMu serializes RunCycle.
	cycleMu sync.Mutex

	mu         sync.Mutex
	prescanned bool
	dirWatcher DirWatcher
}

// NewEngine validates params and builds an Engine.
func NewEngine(p EngineParams) (*Engine, error) {
	if p.Store == nil {
		return nil, ErrStoreInit
	}
	if len(p.Watches) == 0 {
		return nil, ErrNoWatches
	}
	if p.Filesystem == nil || p.Owners == nil || p.Sink == nil {
		return nil, fmt.Errorf("engine requires a filesystem, owner resolver and sink")
	}
	if p.Logger == nil {
		p.Logger = NewNopLogger()
	}
	if p.Clock == nil {
		p.Clock = RealClock{}
	}
	if p.IDs == nil {
		p.IDs = UUIDGenerator{}
	}
	if p.Options.AuditSizeLimit == 0 {
		p.Options.AuditSizeLimit = checksum.DefaultAuditSizeLimit
	}

	return &Engine{
		watches:    p.Watches,
		opts:       p.Options,
		store:      p.Store,
		fsmgr:      p.Filesystem,
		owners:     p.Owners,
		sink:       p.Sink,
		diffs:      p.Diffs,
		logger:     p.Logger,
		clock:      p.Clock,
		idgen:      p.IDs,
		sleep:      time.Sleep,
		prescanned: p.Prescanned,
	}, nil
}

// Watches returns the configured watch roots.
func (e *Engine) Watches() []WatchConfig { return e.watches }

// SetDirWatcher registers w to be told about directories under realtime roots.
func (e *Engine) SetDirWatcher(w DirWatcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dirWatcher = w
}

func (e *Engine) getDirWatcher() DirWatcher {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirWatcher
}

// RunCycle walks every watch root once. The first cycle of an engine
// without a loaded baseline is the pre-scan: it fills the store and
// reports creations but no deletions. Every later cycle also reports the
// paths that were not seen. Per-file problems are logged and counted in
// the report; an error is returned only when alerts could not be delivered.
func (e *Engine) RunCycle() (*CycleReport, error) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	e.mu.Lock()
	prescan := !e.prescanned
	e.mu.Unlock()

	report := &CycleReport{
		ID:        e.idgen.New(),
		Prescan:   prescan,
		StartedAt: e.clock.Now(),
	}
	if prescan {
		e.logger.Info("starting baseline pre-scan", "cycle", report.ID)
	} else {
		e.logger.Info("starting scan cycle", "cycle", report.ID)
		e.store.BeginCycle()
	}

	c := e.newCycle(report, nil)
	for i := range e.watches {
		c.scanRoot(i)
	}

	if !prescan {
		for _, path := range e.store.Unseen() {
			c.removeEntry(path)
		}
		if e.opts.RemoveOldDiff && e.diffs != nil {
			e.reconcileDiffs()
		}
	}

	e.mu.Lock()
	e.prescanned = true
	e.mu.Unlock()

	report.FinishedAt = e.clock.Now()
	e.logger.Info("scan cycle finished",
		"cycle", report.ID,
		"scanned", report.Scanned,
		"created", report.Created,
		"modified", report.Modified,
		"deleted", report.Deleted,
		"errors", report.Errors,
		"duration", report.FinishedAt.Sub(report.StartedAt))

	if c.sendErr != nil {
		return report, fmt.Errorf("delivering %d alerts: %w", c.sendFailures, c.sendErr)
	}
	return report, nil
}

// CheckPath re-examines a single path outside of a cycle, typically after a
// realtime event. audit, when non-nil, is attached to the alerts it raises.
// A missing path removes it, and anything below it, from the baseline.
func (e *Engine) CheckPath(path string, audit *checksum.Audit) error {
	w, rel := e.watchFor(path)
	if w < 0 {
		return fmt.Errorf("%s: %w", path, ErrNotMonitored)
	}
	watch := e.watches[w]

	c := e.newCycle(&CycleReport{}, audit)
	if e.opts.Ignore.ShouldIgnore(path) {
		e.logger.Debug("ignoring path", "path", path)
		return nil
	}

	info, err := e.fsmgr.Lstat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		c.removeTree(path)
	case err != nil:
		return fmt.Errorf("checking %s: %w", path, err)
	case info.IsDir():
		c.walkDir(path, w, watch.MaxDepth-rel)
	case rel-1 > watch.MaxDepth:
		e.logger.Debug("path below maximum recursion level", "path", path)
	default:
		c.checkEntry(path, info, w)
	}

	if c.sendErr != nil {
		return fmt.Errorf("delivering alerts for %s: %w", path, c.sendErr)
	}
	return nil
}

// watchFor returns the index of the deepest watch root containing path and
// the number of separators between them, or -1.
func (e *Engine) watchFor(path string) (int, int) {
	best, bestDepth, bestLen := -1, 0, -1
	for i, w := range e.watches {
		root := strings.TrimSuffix(w.Path, string(os.PathSeparator))
		if path != root && !strings.HasPrefix(path, root+string(os.PathSeparator)) {
			continue
		}
		if len(root) > bestLen {
			best, bestLen = i, len(root)
			bestDepth = filter.RelativeDepth(root, path)
		}
	}
	return best, bestDepth
}

func (e *Engine) tagFor(watchIndex int) string {
	if watchIndex < 0 || watchIndex >= len(e.watches) {
		return ""
	}
	return e.watches[watchIndex].Tag
}

func (e *Engine) reconcileDiffs() {
	n, err := e.diffs.Reconcile(func(path string) bool {
		_, ok := e.store.Get(path)
		return ok
	})
	if err != nil {
		e.logger.Warn("reconciling diff store", "error", err)
	}
	if n > 0 {
		e.logger.Info("removed stale diff snapshots", "count", n)
	}
}
