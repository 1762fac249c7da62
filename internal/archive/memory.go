package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"fim-go/internal/fim"
)

// ErrNotFound is returned by Get when the item does not exist.
var ErrNotFound = errors.New("archive item not found")

// MemoryArchive keeps exports in memory. It is safe for concurrent use.
type MemoryArchive struct {
	name     string
	mu       sync.RWMutex
	items    map[string][]byte // "agentID/name" -> payload
	versions map[string]int64
}

func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{
		name:     name,
		items:    make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

func itemKey(agentID, name string) string {
	return agentID + "/" + name
}

func (m *MemoryArchive) Put(agentID, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read item: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemKey(agentID, name)
	m.items[key] = data
	m.versions[key] = version
	return nil
}

func (m *MemoryArchive) Version(agentID, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[itemKey(agentID, name)], nil
}

func (m *MemoryArchive) Get(agentID, name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.items[itemKey(agentID, name)]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%q for agent %s: %w", name, agentID, ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}
	return nil
}

// ValidateSetup always succeeds for the in-memory archive.
func (m *MemoryArchive) ValidateSetup() error {
	return nil
}

var _ fim.Archive = (*MemoryArchive)(nil)
