package testutil

import (
	"testing"

	"fim-go/internal/archive"
	"fim-go/internal/database"
	"fim-go/internal/encryption"
	"fim-go/internal/fim"
)

// NewTestDatabase opens an in-memory SQLite database with the schema applied.
// When seed entries are given they are saved as the persisted baseline.
// The database is closed when the test completes.
func NewTestDatabase(t *testing.T, seed ...fim.Entry) fim.Database {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if len(seed) > 0 {
		if err := db.SaveBaseline(seed); err != nil {
			t.Fatalf("seeding baseline: %v", err)
		}
	}
	return db
}

// NewTestArchive creates an in-memory archive.
func NewTestArchive() fim.Archive {
	return archive.NewMemoryArchive("test")
}

// NewTestEncryptor returns a deterministic encryptor whose Unlock accepts
// only passphrase.
func NewTestEncryptor(passphrase string) fim.Encryptor {
	e := encryption.NewTestEncryptor()
	e.Setup(passphrase)
	return e
}
