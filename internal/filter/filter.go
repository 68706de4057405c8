// Package filter implements the include/exclude predicate (component H):
// an ordered pattern stack evaluated first-match-wins against a tree-
// relative path.
package filter

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Mode distinguishes an include rule from an exclude rule.
type Mode int

const (
	Include Mode = iota
	Exclude
)

type rule struct {
	mode      Mode
	pattern   string
	g         glob.Glob
	anchored  bool // pattern had a leading "/"
	dirOnly   bool // pattern had a trailing "/"
}

// Stack is an ordered list of (mode, pattern) rules, matched in order; the
// first matching rule decides. A path matching no rule is included.
type Stack struct {
	rules []rule
}

// Add appends one rule to the stack. Patterns follow rsync-like glob
// syntax: "*" matches within one path segment, "**" matches across
// segments, a leading "/" anchors the pattern to the tree root, a
// trailing "/" restricts the rule to directories.
func (s *Stack) Add(mode Mode, pattern string) error {
	anchored := strings.HasPrefix(pattern, "/")
	dirOnly := strings.HasSuffix(pattern, "/")

	compile := strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/")
	g, err := glob.Compile(compile, '/')
	if err != nil {
		return fmt.Errorf("filter: bad pattern %q: %w", pattern, err)
	}
	s.rules = append(s.rules, rule{mode: mode, pattern: pattern, g: g, anchored: anchored, dirOnly: dirOnly})
	return nil
}

// Included reports whether relPath (slash-separated, relative to the tree
// root, no leading slash) passes the filter. isDir tells a directory-only
// exclude rule whether it applies.
func (s *Stack) Included(relPath string, isDir bool) bool {
	for _, r := range s.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.g.Match(relPath) {
			return r.mode == Include
		}
		if !r.anchored {
			// An unanchored pattern may match any path suffix starting at a
			// segment boundary, mirroring rsync's per-segment matching.
			for i := 0; i < len(relPath); i++ {
				if relPath[i] == '/' && r.g.Match(relPath[i+1:]) {
					return r.mode == Include
				}
			}
		}
	}
	return true
}

// Len reports how many rules are on the stack.
func (s *Stack) Len() int { return len(s.rules) }
