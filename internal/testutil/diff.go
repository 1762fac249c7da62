package testutil

import (
	"fmt"
	"io"
	"sync"

	"fim-go/internal/fim"
)

// MockDiffStore captures content from a MockFilesystemManager and reports
// changes as a one-line summary instead of a real diff.
type MockDiffStore struct {
	fsmgr *MockFilesystemManager

	mu         sync.Mutex
	snapshots  map[string][]byte
	Deleted    []string
	Reconciled int
}

var _ fim.DiffStore = (*MockDiffStore)(nil)

func NewMockDiffStore(fsmgr *MockFilesystemManager) *MockDiffStore {
	return &MockDiffStore{fsmgr: fsmgr, snapshots: make(map[string][]byte)}
}

func (d *MockDiffStore) Capture(path string) (string, error) {
	r, err := d.fsmgr.Open(path)
	if err != nil {
		return "", err
	}
	content, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.snapshots[path]
	d.snapshots[path] = content
	if !ok || string(prev) == string(content) {
		return "", nil
	}
	return fmt.Sprintf("changed %q -> %q", prev, content), nil
}

func (d *MockDiffStore) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.snapshots, path)
	d.Deleted = append(d.Deleted, path)
	return nil
}

func (d *MockDiffStore) Reconcile(isTracked func(string) bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Reconciled++
	n := 0
	for p := range d.snapshots {
		if !isTracked(p) {
			delete(d.snapshots, p)
			n++
		}
	}
	return n, nil
}

// HasSnapshot reports whether path has a captured snapshot.
func (d *MockDiffStore) HasSnapshot(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.snapshots[path]
	return ok
}
