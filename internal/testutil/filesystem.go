package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"fim-go/internal/fim"
)

// MockFile represents an entry in the mock filesystem.
type MockFile struct {
	Content []byte
	// Mode carries the permission bits and the fs.ModeDir, fs.ModeSymlink
	// or other type bits.
	Mode    fs.FileMode
	ModTime time.Time
	UID     uint32
	GID     uint32
	Inode   uint64
	// Target is the destination of a symlink.
	Target string
}

// MockFilesystemManager is an in-memory filesystem for testing. It is safe
// for concurrent use.
type MockFilesystemManager struct {
	mu         sync.Mutex
	files      map[string]*MockFile
	nextInode  uint64
	openErrors map[string]error
	statErrors map[string]error
	network    map[string]bool
}

// DefaultModTime is the modification time given to new mock entries.
var DefaultModTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:      make(map[string]*MockFile),
		openErrors: make(map[string]error),
		statErrors: make(map[string]error),
		network:    make(map[string]bool),
	}
}

// AddFile adds a regular file, creating missing parent directories.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(path)
	m.add(path, &MockFile{Content: content, Mode: 0644})
}

// AddDirectory adds a directory, creating missing parent directories.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(path)
	m.add(path, &MockFile{Mode: fs.ModeDir | 0755})
}

// AddSymlink adds a symlink pointing at target.
func (m *MockFilesystemManager) AddSymlink(path, target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(path)
	m.add(path, &MockFile{Mode: fs.ModeSymlink | 0777, Target: target})
}

// AddSpecial adds an entry with an arbitrary type, e.g. fs.ModeNamedPipe.
func (m *MockFilesystemManager) AddSpecial(path string, mode fs.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addParents(path)
	m.add(path, &MockFile{Mode: mode})
}

// WriteFile replaces the content of an existing file.
func (m *MockFilesystemManager) WriteFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[path]; ok {
		f.Content = content
	}
}

// Update applies fn to an existing entry, e.g. to change its owner.
func (m *MockFilesystemManager) Update(path string, fn func(*MockFile)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[path]; ok {
		fn(f)
	}
}

// Remove deletes path and everything below it.
func (m *MockFilesystemManager) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := path + string(filepath.Separator)
	for p := range m.files {
		if p == path || (len(p) > len(prefix) && p[:len(prefix)] == prefix) {
			delete(m.files, p)
		}
	}
}

// SetOpenError makes Open fail for path.
func (m *MockFilesystemManager) SetOpenError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErrors[path] = err
}

// SetStatError makes Lstat and Stat fail for path.
func (m *MockFilesystemManager) SetStatError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statErrors[path] = err
}

// SetNetwork marks path as living on a network filesystem.
func (m *MockFilesystemManager) SetNetwork(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.network[path] = true
}

func (m *MockFilesystemManager) add(path string, f *MockFile) {
	m.nextInode++
	f.Inode = m.nextInode
	f.ModTime = DefaultModTime
	f.UID, f.GID = 1000, 1000
	m.files[path] = f
}

func (m *MockFilesystemManager) addParents(path string) {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.add(dir, &MockFile{Mode: fs.ModeDir | 0755})
		}
		if parent := filepath.Dir(dir); parent == dir {
			return
		}
	}
}

func (m *MockFilesystemManager) Lstat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.statErrors[path]; err != nil {
		return nil, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}
	f, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "lstat", Path: path, Err: fs.ErrNotExist}
	}
	return newMockFileInfo(path, f), nil
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.statErrors[path]; err != nil {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	f, err := m.follow(path)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return newMockFileInfo(path, f), nil
}

// follow resolves symlinks, giving up after a few hops.
func (m *MockFilesystemManager) follow(path string) (*MockFile, error) {
	for i := 0; i < 8; i++ {
		f, ok := m.files[path]
		if !ok {
			return nil, fs.ErrNotExist
		}
		if f.Mode&fs.ModeSymlink == 0 {
			return f, nil
		}
		path = f.Target
	}
	return nil, fmt.Errorf("too many levels of symbolic links")
}

func (m *MockFilesystemManager) ReadDir(path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir, err := m.follow(path)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: err}
	}
	if !dir.Mode.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fmt.Errorf("not a directory")}
	}

	var names []string
	for p := range m.files {
		if p != path && filepath.Dir(p) == path {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MockFilesystemManager) Open(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.openErrors[path]; err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	f, err := m.follow(path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	if f.Mode.IsDir() {
		return nil, fmt.Errorf("cannot open directory: %s", path)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), f.Content...))), nil
}

func (m *MockFilesystemManager) StatData(_ string, info fs.FileInfo) fim.StatData {
	f, ok := info.Sys().(*MockFile)
	if !ok {
		return fim.StatData{}
	}
	return fim.StatData{UID: f.UID, GID: f.GID, Inode: f.Inode, Mode: MockMode(f.Mode)}
}

func (m *MockFilesystemManager) IsNetwork(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.network[path], nil
}

// MockMode returns the st_mode the mock reports for mode.
func MockMode(mode fs.FileMode) uint32 {
	bits := uint32(mode.Perm())
	switch {
	case mode.IsDir():
		bits |= 0o40000
	case mode&fs.ModeSymlink != 0:
		bits |= 0o120000
	case mode.IsRegular():
		bits |= 0o100000
	}
	return bits
}

// mockFileInfo implements fs.FileInfo over a snapshot of a MockFile.
type mockFileInfo struct {
	name string
	file MockFile
}

func newMockFileInfo(path string, f *MockFile) *mockFileInfo {
	return &mockFileInfo{name: filepath.Base(path), file: *f}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return int64(len(m.file.Content)) }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.file.Mode }
func (m *mockFileInfo) ModTime() time.Time { return m.file.ModTime }
func (m *mockFileInfo) IsDir() bool        { return m.file.Mode.IsDir() }
func (m *mockFileInfo) Sys() any           { return &m.file }

// Compile-time check
var _ fim.FilesystemManager = (*MockFilesystemManager)(nil)

// StubOwnerResolver resolves every uid/gid to fixed names.
type StubOwnerResolver struct {
	UserName  string
	GroupName string
	Err       error
}

func (r *StubOwnerResolver) ResolveOwner(_ string, st fim.StatData) (fim.OwnerIdentity, error) {
	return fim.OwnerIdentity{
		UID:       fmt.Sprint(st.UID),
		UserName:  r.UserName,
		GID:       fmt.Sprint(st.GID),
		GroupName: r.GroupName,
	}, r.Err
}

var _ fim.OwnerResolver = (*StubOwnerResolver)(nil)
