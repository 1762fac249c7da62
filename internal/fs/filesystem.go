package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"fim-go/internal/fim"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Lstat returns file info without following a final symlink.
func (m *OSFilesystemManager) Lstat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// Stat returns file info, following symlinks.
func (m *OSFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir returns the entry names of a directory in lexical order.
func (m *OSFilesystemManager) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Compile-time check that OSFilesystemManager implements fim.FilesystemManager interface
var _ fim.FilesystemManager = (*OSFilesystemManager)(nil)
