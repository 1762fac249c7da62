package fim

import "time"

// CycleReport summarizes one scan cycle.
type CycleReport struct {
	ID         string
	Prescan    bool
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Created    int
	Modified   int
	Deleted    int
	Errors     int
}

// Database persists scan history and baseline snapshots across restarts.
type Database interface {
	// RecordCycle stores a finished cycle report.
	RecordCycle(report *CycleReport) error

	// ListCycles returns the most recent cycle reports, newest first.
	ListCycles(limit int) ([]*CycleReport, error)

	// SaveBaseline replaces the persisted baseline with entries.
	SaveBaseline(entries []Entry) error

	// LoadBaseline returns the persisted baseline, or nil if none was saved.
	LoadBaseline() ([]Entry, error)

	// CheckMigrations returns an error unless the schema is at the newest version.
	CheckMigrations() error

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error

	// Close closes the database connection.
	Close() error
}
