package filter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// globPattern is a parsed glob with its matching strategy.
type globPattern struct {
	pattern   string
	matchPath bool // true = match against the full path; false = basename only
}

// GlobMatcher checks paths against shell glob patterns.
// Patterns without '/' match against the basename only.
// Patterns with '/' match against the whole absolute path.
type GlobMatcher struct {
	patterns []globPattern
}

// NewGlobMatcher creates a GlobMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewGlobMatcher(rawPatterns []string) *GlobMatcher {
	var patterns []globPattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, globPattern{
			pattern:   raw,
			matchPath: strings.Contains(raw, "/"),
		})
	}
	return &GlobMatcher{patterns: patterns}
}

// Match reports whether path matches any pattern.
func (m *GlobMatcher) Match(path string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	normalized := filepath.ToSlash(path)
	basename := filepath.Base(path)

	for _, p := range m.patterns {
		var matched bool
		var err error
		if p.matchPath {
			matched, err = filepath.Match(p.pattern, normalized)
		} else {
			matched, err = filepath.Match(p.pattern, basename)
		}
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// IgnoreFile holds the entries read from an ignore file. Lines containing
// glob metacharacters become globs, everything else a literal prefix.
type IgnoreFile struct {
	Literals []string
	Globs    []string
}

// ParseIgnoreFile reads a newline-separated ignore file.
// Returns an empty IgnoreFile and no error if the file does not exist.
func ParseIgnoreFile(path string) (*IgnoreFile, error) {
	out := &IgnoreFile{}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.ContainsAny(line, "*?[") {
			out.Globs = append(out.Globs, line)
		} else {
			out.Literals = append(out.Literals, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return out, nil
}
