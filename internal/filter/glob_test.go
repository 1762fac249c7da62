package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewGlobMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewGlobMatcher([]string{"", "  ", "# comment", "*.log"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[0].pattern != "*.log" {
			t.Errorf("expected *.log, got %s", m.patterns[0].pattern)
		}
	})

	t.Run("classifies path vs basename patterns", func(t *testing.T) {
		t.Parallel()
		m := NewGlobMatcher([]string{"*.log", "/var/cache/*"})
		if m.patterns[0].matchPath {
			t.Error("*.log should not be a path pattern")
		}
		if !m.patterns[1].matchPath {
			t.Error("/var/cache/* should be a path pattern")
		}
	})
}

func TestGlobMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{name: "basename glob", patterns: []string{"*.log"}, path: "/var/log/app.log", want: true},
		{name: "basename glob wrong extension", patterns: []string{"*.log"}, path: "/var/log/app.txt", want: false},
		{name: "exact basename", patterns: []string{".DS_Store"}, path: "/home/a/.DS_Store", want: true},
		{name: "path glob", patterns: []string{"/var/cache/*"}, path: "/var/cache/x", want: true},
		{name: "path glob does not cross separators", patterns: []string{"/var/cache/*"}, path: "/var/cache/a/b", want: false},
		{name: "bad pattern skipped", patterns: []string{"[", "*.tmp"}, path: "/a.tmp", want: true},
		{name: "no patterns", patterns: nil, path: "/a", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewGlobMatcher(tt.patterns)
			if got := m.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		got, err := ParseIgnoreFile(filepath.Join(t.TempDir(), "nope"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Literals) != 0 || len(got.Globs) != 0 {
			t.Errorf("expected empty result, got %+v", got)
		}
	})

	t.Run("splits literals and globs", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "fim.ignore")
		content := "# ignore list\n/etc/mtab\n\n*.swp\n/var/cache/[ab]*\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Literals) != 1 || got.Literals[0] != "/etc/mtab" {
			t.Errorf("Literals = %v", got.Literals)
		}
		if len(got.Globs) != 2 {
			t.Errorf("Globs = %v", got.Globs)
		}
	})
}
