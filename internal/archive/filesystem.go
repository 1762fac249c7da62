package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fim-go/internal/fim"
)

// FileSystemArchive stores exports as files under a root directory:
//
//	<root>/
//	  <agentID>/
//	    <name>          (export payload)
//	    <name>.version  (version marker)
type FileSystemArchive struct {
	name string
	root string
}

// NewFileSystemArchive creates a new filesystem archive rooted at the given path.
func NewFileSystemArchive(name, root string) (*FileSystemArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}
	return &FileSystemArchive{name: name, root: root}, nil
}

func (a *FileSystemArchive) dir(agentID string) (string, error) {
	if agentID == "" || strings.ContainsAny(agentID, `/\`) || agentID == "." || agentID == ".." {
		return "", fmt.Errorf("invalid agent id %q", agentID)
	}
	return filepath.Join(a.root, agentID), nil
}

// Put stores a named item for an agent along with a version marker.
func (a *FileSystemArchive) Put(agentID, name string, r io.Reader, size int64, version int64) error {
	dir, err := a.dir(agentID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create agent directory: %w", err)
	}

	if err := writeFile(filepath.Join(dir, name), r, size); err != nil {
		return err
	}

	versionData := strconv.FormatInt(version, 10)
	return os.WriteFile(filepath.Join(dir, name+".version"), []byte(versionData), 0644)
}

// Version returns the stored version of an item, or 0 if it does not exist.
func (a *FileSystemArchive) Version(agentID, name string) (int64, error) {
	dir, err := a.dir(agentID)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Join(dir, name+".version"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// Get writes a named item for an agent to w.
func (a *FileSystemArchive) Get(agentID, name string, w io.Writer) error {
	dir, err := a.dir(agentID)
	if err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%q for agent %s: %w", name, agentID, ErrNotFound)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the archive root is an accessible directory.
func (a *FileSystemArchive) ValidateSetup() error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("archive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive root is not a directory: %s", a.root)
	}
	return nil
}

// writeFile writes data from r to destPath using a temp file and rename.
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

var _ fim.Archive = (*FileSystemArchive)(nil)
