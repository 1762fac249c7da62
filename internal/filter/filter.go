package filter

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

// Unrelated is returned by RelativeDepth when neither path contains the other.
const Unrelated = math.MaxInt

// Rules is the set of ignore rules applied to every scanned path.
type Rules struct {
	Literals []string
	Patterns []*regexp.Regexp
	Globs    *GlobMatcher
}

// NewRules compiles regexes and glob patterns into a Rules value.
func NewRules(literals, regexes, globs []string) (*Rules, error) {
	r := &Rules{Literals: literals}
	for _, expr := range regexes {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compiling ignore pattern %q: %w", expr, err)
		}
		r.Patterns = append(r.Patterns, re)
	}
	if len(globs) > 0 {
		r.Globs = NewGlobMatcher(globs)
	}
	return r, nil
}

// ShouldIgnore reports whether path is excluded from monitoring: a literal
// is a case-insensitive prefix of path, or a pattern or glob matches it.
func (r *Rules) ShouldIgnore(path string) bool {
	if r == nil {
		return false
	}
	for _, lit := range r.Literals {
		if len(lit) <= len(path) && strings.EqualFold(path[:len(lit)], lit) {
			return true
		}
	}
	for _, re := range r.Patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return r.Globs.Match(path)
}

// ShouldRestrict reports whether path must be skipped because a
// restriction is configured and path does not match it.
func ShouldRestrict(path string, restriction *regexp.Regexp) bool {
	return restriction != nil && !restriction.MatchString(path)
}

// RelativeDepth returns how many path separators separate the deeper of
// parent and child from the shallower one. One trailing separator is
// trimmed from both first. If neither is a prefix of the other the result
// is Unrelated.
func RelativeDepth(parent, child string) int {
	parent = trimSeparator(parent)
	child = trimSeparator(child)

	var suffix string
	switch {
	case strings.HasPrefix(child, parent):
		suffix = child[len(parent):]
	case strings.HasPrefix(parent, child):
		suffix = parent[len(child):]
	default:
		return Unrelated
	}
	return strings.Count(suffix, string(os.PathSeparator))
}

func trimSeparator(p string) string {
	if n := len(p); n > 0 && p[n-1] == os.PathSeparator {
		return p[:n-1]
	}
	return p
}
