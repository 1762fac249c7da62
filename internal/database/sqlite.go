package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fim-go/internal/database/migrations"
	"fim-go/internal/fim"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the Database interface using SQLite.
type SQLiteDatabase struct {
	db *sql.DB
}

// NewSQLiteDatabase opens the database at path and brings its schema up to
// date. path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &SQLiteDatabase{db: db}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Scan history

func (s *SQLiteDatabase) RecordCycle(report *fim.CycleReport) error {
	_, err := s.db.Exec(`
		INSERT INTO scan_cycles (id, prescan, started_at, finished_at, scanned, created, modified, deleted, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Prescan, report.StartedAt.UTC(), report.FinishedAt.UTC(),
		report.Scanned, report.Created, report.Modified, report.Deleted, report.Errors)
	if err != nil {
		return fmt.Errorf("recording scan cycle: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListCycles(limit int) ([]*fim.CycleReport, error) {
	rows, err := s.db.Query(`
		SELECT id, prescan, started_at, finished_at, scanned, created, modified, deleted, errors
		FROM scan_cycles
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scan cycles: %w", err)
	}
	defer rows.Close()

	var result []*fim.CycleReport
	for rows.Next() {
		r := &fim.CycleReport{}
		if err := rows.Scan(&r.ID, &r.Prescan, &r.StartedAt, &r.FinishedAt,
			&r.Scanned, &r.Created, &r.Modified, &r.Deleted, &r.Errors); err != nil {
			return nil, fmt.Errorf("reading scan cycle: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing scan cycles: %w", err)
	}
	return result, nil
}

// Baseline snapshot

// SaveBaseline replaces the stored baseline in a single transaction.
func (s *SQLiteDatabase) SaveBaseline(entries []fim.Entry) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"baseline_entries", "baseline_snapshots"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO baseline_snapshots (id, saved_at, entry_count) VALUES (1, ?, ?)",
		time.Now().UTC(), len(entries)); err != nil {
		return fmt.Errorf("inserting baseline snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO baseline_entries (path, checksum, watch_index, snapshot_id) VALUES (?, ?, ?, 1)")
	if err != nil {
		return fmt.Errorf("preparing baseline insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Path, e.Checksum, e.WatchIndex); err != nil {
			return fmt.Errorf("inserting baseline entry %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing baseline: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) LoadBaseline() ([]fim.Entry, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM baseline_snapshots").Scan(&count); err != nil {
		return nil, fmt.Errorf("checking baseline: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	rows, err := s.db.Query("SELECT path, checksum, watch_index FROM baseline_entries ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("loading baseline: %w", err)
	}
	defer rows.Close()

	entries := []fim.Entry{}
	for rows.Next() {
		var e fim.Entry
		if err := rows.Scan(&e.Path, &e.Checksum, &e.WatchIndex); err != nil {
			return nil, fmt.Errorf("reading baseline entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading baseline: %w", err)
	}
	return entries, nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements fim.Database interface
var _ fim.Database = (*SQLiteDatabase)(nil)
