package diff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"

	"fim-go/internal/fim"
)

const (
	// localDir is the reserved segment under the store root holding snapshots.
	localDir = "local"

	// lastEntryName is the snapshot file inside each mirrored directory.
	// Its presence marks an active snapshot.
	lastEntryName = "last-entry"

	binaryNotice    = "Binary files differ"
	truncatedNotice = "\nMore changes..."

	// binarySniffLen is how much of a file is checked for NUL bytes.
	binarySniffLen = 8000
)

// LocalStore keeps the last captured content of every file with content
// capture enabled, in a tree mirroring the original paths:
//
//	<dir>/
//	  local/
//	    <original path>/
//	      last-entry
type LocalStore struct {
	root          string
	fileSizeLimit int64
	diffSizeLimit int
	logger        fim.Logger
	mu            sync.Mutex
}

var _ fim.DiffStore = (*LocalStore)(nil)

// NewLocalStore creates a store under dir. Files larger than fileSizeLimit
// are not captured and diffs are cut at diffSizeLimit bytes; zero disables
// either limit.
func NewLocalStore(dir string, fileSizeLimit int64, diffSizeLimit int, logger fim.Logger) (*LocalStore, error) {
	root := filepath.Join(dir, localDir)
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create diff directory: %w", err)
	}
	if logger == nil {
		logger = fim.NewNopLogger()
	}
	return &LocalStore{
		root:          root,
		fileSizeLimit: fileSizeLimit,
		diffSizeLimit: diffSizeLimit,
		logger:        logger,
	}, nil
}

// Root returns the directory holding the mirrored snapshots.
func (s *LocalStore) Root() string { return s.root }

// Capture stores the current content of path and returns a unified diff
// against the previous capture. The first capture of a file returns "".
func (s *LocalStore) Capture(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}
	if s.fileSizeLimit > 0 && info.Size() > s.fileSizeLimit {
		s.logger.Debug("file too large to capture", "path", path, "size", info.Size())
		return "", nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.snapshotDir(path)
	last := filepath.Join(dir, lastEntryName)

	prev, err := os.ReadFile(last)
	first := errors.Is(err, fs.ErrNotExist)
	if err != nil && !first {
		return "", fmt.Errorf("reading previous capture: %w", err)
	}

	if !first && bytes.Equal(prev, content) {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := writeFile(last, bytes.NewReader(content), int64(len(content))); err != nil {
		return "", err
	}

	if first {
		return "", nil
	}
	return s.render(path, prev, content)
}

func (s *LocalStore) render(path string, prev, content []byte) (string, error) {
	if isBinary(prev) || isBinary(content) {
		return binaryNotice, nil
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(prev)),
		B:        difflib.SplitLines(string(content)),
		FromFile: path,
		FromDate: "previous",
		ToFile:   path,
		ToDate:   "current",
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("generating diff: %w", err)
	}

	out = strings.TrimRight(out, "\n")
	if s.diffSizeLimit > 0 && len(out) > s.diffSizeLimit {
		out = out[:s.diffSizeLimit] + truncatedNotice
	}
	return out, nil
}

// Delete removes the snapshot of path and every ancestor directory left
// empty, stopping below the store root.
func (s *LocalStore) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteSnapshot(s.snapshotDir(path))
}

func (s *LocalStore) deleteSnapshot(dir string) error {
	last := filepath.Join(dir, lastEntryName)
	if err := os.Remove(last); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing snapshot: %w", err)
	}
	s.removeEmptyParents(dir)
	return nil
}

// removeEmptyParents removes dir and its ancestors while they are empty.
// The store root is never removed.
func (s *LocalStore) removeEmptyParents(dir string) {
	for {
		rel, err := filepath.Rel(s.root, dir)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Reconcile removes the snapshots of paths that are no longer tracked.
// Failures on single entries are logged and do not stop the pass.
func (s *LocalStore) Reconcile(isTracked func(path string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("reading diff directory", "path", p, "error", err)
			if d != nil && d.IsDir() && p != s.root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Name() != lastEntryName {
			return nil
		}
		dir := filepath.Dir(p)
		if !isTracked(s.originalPath(dir)) {
			stale = append(stale, dir)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking diff directory: %w", err)
	}

	removed := 0
	for _, dir := range stale {
		s.logger.Debug("deleting snapshot of unmonitored file", "path", s.originalPath(dir))
		if err := s.deleteSnapshot(dir); err != nil {
			s.logger.Warn("could not delete snapshot", "path", dir, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// snapshotDir maps an original path into the mirrored tree. On Windows
// the drive letter becomes the first segment.
func (s *LocalStore) snapshotDir(path string) string {
	vol := filepath.VolumeName(path)
	rest := path[len(vol):]
	if vol != "" {
		return filepath.Join(s.root, strings.TrimSuffix(vol, ":"), rest)
	}
	return filepath.Join(s.root, rest)
}

// originalPath is the inverse of snapshotDir.
func (s *LocalStore) originalPath(dir string) string {
	rel, err := filepath.Rel(s.root, dir)
	if err != nil {
		return dir
	}
	if runtime.GOOS == "windows" {
		drive, rest, _ := strings.Cut(rel, string(os.PathSeparator))
		return drive + `:\` + rest
	}
	return string(os.PathSeparator) + rel
}

func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// writeFile writes data from r to destPath using atomic write (temp file + rename).
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
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
