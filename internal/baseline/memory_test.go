package baseline

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"fim-go/internal/fim"
)

func TestMemoryStore_UpsertGetRemove(t *testing.T) {
	s := NewMemoryStore()

	if _, ok := s.Get("/a"); ok {
		t.Fatal("empty store returned an entry")
	}

	if _, replaced := s.Upsert(fim.Entry{Path: "/a", Checksum: "one"}); replaced {
		t.Error("first upsert reported a replacement")
	}
	old, replaced := s.Upsert(fim.Entry{Path: "/a", Checksum: "two", WatchIndex: 1})
	if !replaced || old.Checksum != "one" {
		t.Errorf("Upsert() old = %+v, %v", old, replaced)
	}

	got, ok := s.Get("/a")
	if !ok || got.Checksum != "two" || got.WatchIndex != 1 {
		t.Errorf("Get() = %+v, %v", got, ok)
	}

	removed, ok := s.Remove("/a")
	if !ok || removed.Checksum != "two" {
		t.Errorf("Remove() = %+v, %v", removed, ok)
	}
	if _, ok := s.Remove("/a"); ok {
		t.Error("second Remove() found the entry")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestMemoryStore_Snapshot(t *testing.T) {
	s := NewMemoryStore()
	s.Upsert(fim.Entry{Path: "/b", Checksum: "b"})
	s.Upsert(fim.Entry{Path: "/a", Checksum: "a"})

	snap := s.Snapshot()
	s.Upsert(fim.Entry{Path: "/c", Checksum: "c"})
	s.Remove("/a")

	want := []fim.Entry{{Path: "/a", Checksum: "a"}, {Path: "/b", Checksum: "b"}}
	if !reflect.DeepEqual(snap, want) {
		t.Errorf("Snapshot() = %+v, want %+v", snap, want)
	}
}

func TestMemoryStore_ForEach(t *testing.T) {
	s := NewMemoryStore()
	for _, p := range []string{"/a", "/b", "/c"} {
		s.Upsert(fim.Entry{Path: p})
	}

	t.Run("stops when fn returns false", func(t *testing.T) {
		var seen []string
		s.ForEach(func(e fim.Entry) bool {
			seen = append(seen, e.Path)
			return len(seen) < 2
		})
		if len(seen) != 2 {
			t.Errorf("visited %v", seen)
		}
	})

	t.Run("may mutate the store", func(t *testing.T) {
		s.ForEach(func(e fim.Entry) bool {
			s.Remove(e.Path)
			return true
		})
		if s.Len() != 0 {
			t.Errorf("Len() = %d after removing everything", s.Len())
		}
	})
}

func TestMemoryStore_DeletionTracking(t *testing.T) {
	s := NewMemoryStore()
	for _, p := range []string{"/a", "/b", "/c"} {
		s.Upsert(fim.Entry{Path: p})
	}

	s.BeginCycle()
	s.MarkSeen("/a")
	s.MarkSeen("/c")
	s.Upsert(fim.Entry{Path: "/d"})

	if got := s.Unseen(); !reflect.DeepEqual(got, []string{"/b"}) {
		t.Errorf("Unseen() = %v, want [/b]", got)
	}
	if got := s.Unseen(); len(got) != 0 {
		t.Errorf("second Unseen() = %v, want empty", got)
	}

	t.Run("remove drops pending deletions", func(t *testing.T) {
		s.BeginCycle()
		s.Remove("/a")
		got := s.Unseen()
		want := []string{"/b", "/c", "/d"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Unseen() = %v, want %v", got, want)
		}
	})
}

func TestMemoryStore_Load(t *testing.T) {
	s := NewMemoryStore()
	s.Upsert(fim.Entry{Path: "/old"})
	s.Load([]fim.Entry{{Path: "/x", Checksum: "1"}, {Path: "/y", Checksum: "2"}})

	if _, ok := s.Get("/old"); ok {
		t.Error("Load() kept previous entries")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p := fmt.Sprintf("/f%d-%d", i, j)
				s.Upsert(fim.Entry{Path: p})
				s.Get(p)
				s.MarkSeen(p)
				if j%2 == 0 {
					s.Remove(p)
				}
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 400 {
		t.Errorf("Len() = %d, want 400", s.Len())
	}
}
