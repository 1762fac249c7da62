package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"fim-go/internal/archive"
	"fim-go/internal/baseline"
	"fim-go/internal/config"
	"fim-go/internal/database"
	"fim-go/internal/diff"
	"fim-go/internal/encryption"
	"fim-go/internal/fim"
	"fim-go/internal/fs"
	"fim-go/internal/realtime"
	"fim-go/internal/sink"
)

// FIMApp is the application layer between the CLI and the scan engine.
// It constructs all dependencies from config, restores the persisted
// baseline, and writes it back after every cycle and on Close.
type FIMApp struct {
	cfg         *config.Config
	db          fim.Database
	store       *baseline.MemoryStore
	engine      *fim.Engine
	watches     []fim.WatchConfig
	sink        fim.MessageSink
	archive     fim.Archive
	encryptor   fim.Encryptor
	logger      fim.Logger
	logFile     *os.File
	hasBaseline bool
}

// Params overrides collaborators that are otherwise built from config.
// Zero fields fall back to the configured implementation.
type Params struct {
	Database   fim.Database
	Archive    fim.Archive
	Encryptor  fim.Encryptor
	Sink       fim.MessageSink
	Filesystem fim.FilesystemManager
	Owners     fim.OwnerResolver
	Clock      fim.Clock
	IDs        fim.IDGenerator
}

// NewFIMApp creates a fully wired FIMApp from the given config.
// command identifies the CLI command being run and is logged with every line.
// The caller must call Close when done.
func NewFIMApp(cfg *config.Config, command string) (*FIMApp, error) {
	return NewFIMAppWithParams(cfg, command, Params{})
}

// NewFIMAppWithParams is NewFIMApp with injectable collaborators.
func NewFIMAppWithParams(cfg *config.Config, command string, p Params) (*FIMApp, error) {
	if cfg.AgentID == "" {
		return nil, fmt.Errorf("agent_id is not configured")
	}
	cfg.ApplyDefaults()

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	ids := p.IDs
	if ids == nil {
		ids = fim.UUIDGenerator{}
	}
	runID := ids.New()
	sl, logFile, err := newLogger(cfg.LogDir, runID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl.With("command", command)}

	a := &FIMApp{cfg: cfg, logger: logger, logFile: logFile}
	if err := a.build(p, ids); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *FIMApp) build(p Params, ids fim.IDGenerator) error {
	cfg := a.cfg

	watches, err := BuildWatches(cfg)
	if err != nil {
		return fmt.Errorf("building watches: %w", err)
	}
	rules, err := BuildFilter(cfg)
	if err != nil {
		return fmt.Errorf("building ignore rules: %w", err)
	}
	a.watches = watches

	a.db = p.Database
	if a.db == nil {
		if a.db, err = database.NewDatabaseFromConfig(cfg.Database, cfg.AgentID); err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
	}
	if err := a.db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date: %w", err)
	}

	a.store = baseline.NewMemoryStore()
	entries, err := a.db.LoadBaseline()
	if err != nil {
		return fmt.Errorf("loading baseline: %w", err)
	}
	if entries != nil {
		a.store.Load(entries)
		a.hasBaseline = true
		a.logger.Info("baseline loaded", "entries", len(entries))
	}

	a.sink = p.Sink
	if a.sink == nil {
		if a.sink, err = sink.NewSinkFromConfig(cfg.Sink, a.logger); err != nil {
			return fmt.Errorf("creating sink: %w", err)
		}
	}

	a.archive = p.Archive
	if a.archive == nil && cfg.Archive.Type != "" {
		if a.archive, err = archive.NewArchiveFromConfig(cfg.Archive); err != nil {
			return fmt.Errorf("creating archive: %w", err)
		}
	}

	a.encryptor = p.Encryptor
	if a.encryptor == nil {
		if a.encryptor, err = encryption.NewEncryptorFromConfig(cfg.Encryption); err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}
	}

	if len(watches) == 0 {
		return nil
	}

	var diffs fim.DiffStore
	if capturesContent(watches) {
		if diffs, err = diff.NewLocalStore(cfg.Diff.Dir, cfg.Diff.FileSizeLimit, cfg.Diff.DiffSizeLimit, a.logger); err != nil {
			return fmt.Errorf("creating diff store: %w", err)
		}
	}

	fsmgr := p.Filesystem
	if fsmgr == nil {
		fsmgr = fs.NewOSFilesystemManager()
	}
	owners := p.Owners
	if owners == nil {
		owners = fs.NewOwnerResolver()
	}

	a.engine, err = fim.NewEngine(fim.EngineParams{
		Watches:    watches,
		Options:    BuildOptions(cfg, rules),
		Store:      a.store,
		Filesystem: fsmgr,
		Owners:     owners,
		Sink:       a.sink,
		Diffs:      diffs,
		Logger:     a.logger,
		Clock:      p.Clock,
		IDs:        ids,
		Prescanned: a.hasBaseline,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	return nil
}

func (a *FIMApp) requireEngine() (*fim.Engine, error) {
	if a.engine == nil {
		return nil, fim.ErrNoWatches
	}
	return a.engine, nil
}

// RunCycle runs one scan cycle, records it in the history and persists the
// resulting baseline. The report is returned even when alerts could not be
// delivered.
func (a *FIMApp) RunCycle() (*fim.CycleReport, error) {
	eng, err := a.requireEngine()
	if err != nil {
		return nil, err
	}

	report, cycleErr := eng.RunCycle()
	if err := a.db.RecordCycle(report); err != nil {
		return report, err
	}
	if err := a.SaveBaseline(); err != nil {
		return report, err
	}
	a.hasBaseline = true
	return report, cycleErr
}

// Run scans on the configured frequency until ctx is cancelled. Realtime
// roots are watched for change events between cycles. A first cycle runs
// immediately when no baseline was loaded, when scan_on_start is set, or
// when realtime roots need their directories registered.
func (a *FIMApp) Run(ctx context.Context) error {
	eng, err := a.requireEngine()
	if err != nil {
		return err
	}

	realtimeOn := hasRealtime(a.watches)
	var done chan struct{}
	if realtimeOn {
		debounce := time.Duration(a.cfg.Scan.DebounceMS) * time.Millisecond
		w, err := realtime.New(eng, debounce, a.logger)
		if err != nil {
			return fmt.Errorf("starting realtime watcher: %w", err)
		}
		defer w.Close()
		eng.SetDirWatcher(w)
		defer eng.SetDirWatcher(nil)

		done = make(chan struct{})
		go func() {
			defer close(done)
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("realtime watcher stopped", "error", err)
			}
		}()
	}

	if !a.hasBaseline || a.cfg.Scan.ScanOnStart || realtimeOn {
		a.runScheduled()
	}

	ticker := time.NewTicker(time.Duration(a.cfg.Scan.Frequency) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if done != nil {
				<-done
			}
			a.logger.Info("shutting down")
			return a.SaveBaseline()
		case <-ticker.C:
			a.runScheduled()
		}
	}
}

// runScheduled runs a cycle and logs failures; the schedule keeps going.
func (a *FIMApp) runScheduled() {
	if _, err := a.RunCycle(); err != nil {
		a.logger.Error("scan cycle failed", "error", err)
	}
}

// SaveBaseline writes the in-memory baseline to the database.
func (a *FIMApp) SaveBaseline() error {
	if err := a.db.SaveBaseline(a.store.Snapshot()); err != nil {
		return fmt.Errorf("saving baseline: %w", err)
	}
	return nil
}

// BackupDatabase writes a copy of the database to destPath, which must not
// exist yet.
func (a *FIMApp) BackupDatabase(destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("backup destination %s already exists", destPath)
	}
	if err := a.db.BackupTo(destPath); err != nil {
		return err
	}
	a.logger.Info("database backed up", "dest", destPath)
	return nil
}

// History returns the most recent scan cycles, newest first.
func (a *FIMApp) History(limit int) ([]*fim.CycleReport, error) {
	return a.db.ListCycles(limit)
}

// Baseline returns the tracked entries sorted by path.
func (a *FIMApp) Baseline() []fim.Entry {
	return a.store.Snapshot()
}

// HasBaseline reports whether a baseline was loaded or produced by a cycle.
func (a *FIMApp) HasBaseline() bool { return a.hasBaseline }

// Close persists the baseline and closes all resources.
func (a *FIMApp) Close() error {
	var firstErr error

	if a.db != nil {
		if a.hasBaseline {
			if err := a.SaveBaseline(); err != nil {
				firstErr = err
			}
		}
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if c, ok := a.sink.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing sink: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
