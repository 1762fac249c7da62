package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fim-go/internal/fim"
)

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSQLiteDatabase_Cycles(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		db := newTestDB(t)

		cycles, err := db.ListCycles(10)
		if err != nil {
			t.Fatalf("ListCycles() error = %v", err)
		}
		if len(cycles) != 0 {
			t.Errorf("ListCycles() = %d cycles, want 0", len(cycles))
		}
	})

	t.Run("records and lists newest first", func(t *testing.T) {
		db := newTestDB(t)
		start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

		for i := 0; i < 3; i++ {
			report := &fim.CycleReport{
				ID:         []string{"cycle-a", "cycle-b", "cycle-c"}[i],
				Prescan:    i == 0,
				StartedAt:  start.Add(time.Duration(i) * time.Hour),
				FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
				Scanned:    10 + i,
				Created:    i,
				Modified:   2 * i,
				Deleted:    3 * i,
				Errors:     4 * i,
			}
			if err := db.RecordCycle(report); err != nil {
				t.Fatalf("RecordCycle() error = %v", err)
			}
		}

		cycles, err := db.ListCycles(2)
		if err != nil {
			t.Fatalf("ListCycles() error = %v", err)
		}
		if len(cycles) != 2 {
			t.Fatalf("ListCycles() = %d cycles, want 2", len(cycles))
		}
		got := cycles[0]
		if got.ID != "cycle-c" || got.Scanned != 12 || got.Created != 2 || got.Modified != 4 ||
			got.Deleted != 6 || got.Errors != 8 || got.Prescan {
			t.Errorf("newest cycle = %+v", got)
		}
		if !got.StartedAt.Equal(start.Add(2 * time.Hour)) {
			t.Errorf("StartedAt = %v", got.StartedAt)
		}
		if !got.FinishedAt.Equal(start.Add(2*time.Hour + time.Minute)) {
			t.Errorf("FinishedAt = %v", got.FinishedAt)
		}
		if cycles[1].ID != "cycle-b" {
			t.Errorf("second cycle = %s, want cycle-b", cycles[1].ID)
		}
	})

	t.Run("duplicate id fails", func(t *testing.T) {
		db := newTestDB(t)
		report := &fim.CycleReport{ID: "dup", StartedAt: time.Now(), FinishedAt: time.Now()}
		if err := db.RecordCycle(report); err != nil {
			t.Fatalf("RecordCycle() error = %v", err)
		}
		if err := db.RecordCycle(report); err == nil {
			t.Error("RecordCycle() expected error for duplicate id")
		}
	})
}

func TestSQLiteDatabase_Baseline(t *testing.T) {
	t.Run("nothing saved", func(t *testing.T) {
		db := newTestDB(t)

		entries, err := db.LoadBaseline()
		if err != nil {
			t.Fatalf("LoadBaseline() error = %v", err)
		}
		if entries != nil {
			t.Errorf("LoadBaseline() = %v, want nil", entries)
		}
	})

	t.Run("saved empty baseline is not nil", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.SaveBaseline(nil); err != nil {
			t.Fatalf("SaveBaseline() error = %v", err)
		}
		entries, err := db.LoadBaseline()
		if err != nil {
			t.Fatalf("LoadBaseline() error = %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Errorf("LoadBaseline() = %#v, want empty non-nil slice", entries)
		}
	})

	t.Run("save replaces previous baseline", func(t *testing.T) {
		db := newTestDB(t)

		first := []fim.Entry{
			{Path: "/etc/hosts", Checksum: "+---------9:0:::::::0:0:", WatchIndex: 0},
			{Path: "/etc/passwd", Checksum: "+---------4:0:::::::0:0:", WatchIndex: 0},
		}
		if err := db.SaveBaseline(first); err != nil {
			t.Fatalf("SaveBaseline() error = %v", err)
		}

		second := []fim.Entry{
			{Path: "/var/www/index.html", Checksum: "----+-----0:0:::abc:::::0:0:", WatchIndex: 2},
			{Path: "/etc/passwd", Checksum: "+---------5:0:::::::0:0:", WatchIndex: 0},
		}
		if err := db.SaveBaseline(second); err != nil {
			t.Fatalf("SaveBaseline() error = %v", err)
		}

		entries, err := db.LoadBaseline()
		if err != nil {
			t.Fatalf("LoadBaseline() error = %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("LoadBaseline() = %d entries, want 2", len(entries))
		}
		// Sorted by path
		if entries[0] != second[1] || entries[1] != second[0] {
			t.Errorf("LoadBaseline() = %+v", entries)
		}
	})
}

func TestSQLiteDatabase_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	if err := db.SaveBaseline([]fim.Entry{{Path: "/etc/hosts", Checksum: "x"}}); err != nil {
		t.Fatalf("SaveBaseline() error = %v", err)
	}
	db.Close()

	db, err = NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer db.Close()

	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	entries, err := db.LoadBaseline()
	if err != nil {
		t.Fatalf("LoadBaseline() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "/etc/hosts" {
		t.Errorf("LoadBaseline() = %+v", entries)
	}
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newTestDB(t)
	if err := db.SaveBaseline([]fim.Entry{{Path: "/etc/hosts", Checksum: "x"}}); err != nil {
		t.Fatalf("SaveBaseline() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	restored, err := NewSQLiteDatabase(dest)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer restored.Close()
	entries, err := restored.LoadBaseline()
	if err != nil || len(entries) != 1 {
		t.Errorf("backup LoadBaseline() = %v, %v", entries, err)
	}
}
