package archive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fim-go/internal/fim"
)

// exerciseArchive runs the behaviour every Archive implementation shares.
func exerciseArchive(t *testing.T, a fim.Archive) {
	t.Helper()

	t.Run("validate setup", func(t *testing.T) {
		if err := a.ValidateSetup(); err != nil {
			t.Fatalf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("missing item", func(t *testing.T) {
		v, err := a.Version("agent-1", "baseline")
		if err != nil || v != 0 {
			t.Errorf("Version() = %d, %v; want 0, nil", v, err)
		}
		var buf bytes.Buffer
		if err := a.Get("agent-1", "baseline", &buf); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		data := "payload one"
		if err := a.Put("agent-1", "baseline", strings.NewReader(data), int64(len(data)), 1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		data = "payload two"
		if err := a.Put("agent-1", "baseline", strings.NewReader(data), int64(len(data)), 2); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var buf bytes.Buffer
		if err := a.Get("agent-1", "baseline", &buf); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if buf.String() != "payload two" {
			t.Errorf("Get() = %q, want %q", buf.String(), "payload two")
		}
		v, err := a.Version("agent-1", "baseline")
		if err != nil || v != 2 {
			t.Errorf("Version() = %d, %v; want 2, nil", v, err)
		}
	})

	t.Run("agents are separate", func(t *testing.T) {
		v, err := a.Version("agent-2", "baseline")
		if err != nil || v != 0 {
			t.Errorf("Version() = %d, %v; want 0, nil", v, err)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		if err := a.Put("agent-1", "short", strings.NewReader("abc"), 10, 1); err == nil {
			t.Error("Put() expected size mismatch error")
		}
	})
}

func TestMemoryArchive(t *testing.T) {
	exerciseArchive(t, NewMemoryArchive("test"))
}

func TestFileSystemArchive(t *testing.T) {
	root := filepath.Join(t.TempDir(), "archive")
	a, err := NewFileSystemArchive("test", root)
	if err != nil {
		t.Fatalf("NewFileSystemArchive() error = %v", err)
	}
	exerciseArchive(t, a)

	t.Run("layout", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(root, "agent-1", "baseline")); err != nil {
			t.Errorf("payload not stored: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(root, "agent-1", "baseline.version"))
		if err != nil || string(data) != "2" {
			t.Errorf("version file = %q, %v", data, err)
		}
		if _, err := os.Stat(filepath.Join(root, "agent-1", "short")); !os.IsNotExist(err) {
			t.Error("failed put left a payload behind")
		}
	})

	t.Run("rejects path-like agent ids", func(t *testing.T) {
		for _, id := range []string{"", "..", "a/b"} {
			if err := a.Put(id, "x", strings.NewReader(""), 0, 1); err == nil {
				t.Errorf("Put(%q) expected error", id)
			}
		}
	})

	t.Run("validate setup fails when root is gone", func(t *testing.T) {
		os.RemoveAll(root)
		if err := a.ValidateSetup(); err == nil {
			t.Error("ValidateSetup() expected error")
		}
	})
}
