package baseline

import (
	"sort"
	"sync"

	"fim-go/internal/fim"
)

// MemoryStore is an in-memory BaselineStore guarded by a single mutex.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]fim.Entry
	lastCheck map[string]struct{}
}

var _ fim.BaselineStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]fim.Entry),
		lastCheck: make(map[string]struct{}),
	}
}

// Load replaces the contents of the store with entries.
func (s *MemoryStore) Load(entries []fim.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]fim.Entry, len(entries))
	for _, e := range entries {
		s.entries[e.Path] = e
	}
	s.lastCheck = make(map[string]struct{})
}

func (s *MemoryStore) Get(path string) (fim.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	return e, ok
}

func (s *MemoryStore) Upsert(e fim.Entry) (fim.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.entries[e.Path]
	s.entries[e.Path] = e
	return old, ok
}

func (s *MemoryStore) Remove(path string) (fim.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	delete(s.entries, path)
	delete(s.lastCheck, path)
	return e, ok
}

// Snapshot returns all entries sorted by path.
func (s *MemoryStore) Snapshot() []fim.Entry {
	s.mu.Lock()
	out := make([]fim.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (s *MemoryStore) ForEach(fn func(fim.Entry) bool) {
	for _, e := range s.Snapshot() {
		if !fn(e) {
			return
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) BeginCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = make(map[string]struct{}, len(s.entries))
	for path := range s.entries {
		s.lastCheck[path] = struct{}{}
	}
}

func (s *MemoryStore) MarkSeen(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastCheck, path)
}

// Unseen returns the unseen paths sorted, and clears the set.
func (s *MemoryStore) Unseen() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.lastCheck))
	for path := range s.lastCheck {
		out = append(out, path)
	}
	s.lastCheck = make(map[string]struct{})
	s.mu.Unlock()

	sort.Strings(out)
	return out
}
