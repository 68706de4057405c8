// Package setengine implements the streaming N-way set engine (component
// G): fdupes, onall, onfirstonly, onlastonly, cmp and search, all driven
// by the same group-by-content-key machinery.
//
// The original reconciler computes this in two passes per query (first
// the sizes that are candidates, then the hashes within each candidate
// size) to avoid loading every tree into memory at once. This module
// keeps that two-phase shape — size_to_files then a prop-level pass — but
// collects both phases eagerly into maps; it uses no channels or lazy
// generators.
package setengine

import (
	"sort"

	"github.com/gobwas/glob"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/treeview"
)

// Key is the content key groups are formed by.
type Key struct {
	Size     int64
	Hash     uint64
	SizeOnly bool
}

// Options controls pruning and equivalence for the grouped queries
// (Fdupes, OnAll, OnFirstOnly, OnLastOnly). Cmp reads only SizeOnly.
type Options struct {
	MinSize  int64 // files smaller than this size never appear
	MaxSize  int64 // 0 = unbounded
	SizeOnly bool
	HardLinks bool // count distinct paths to one file-id as repeats (fdupes only)
}

func keyOf(e treeview.Entry, sizeOnly bool) Key {
	if sizeOnly {
		return Key{Size: e.Size, SizeOnly: true}
	}
	return Key{Size: e.Size, Hash: e.Hash}
}

func included(e treeview.Entry, opts Options) bool {
	if e.Size < opts.MinSize {
		return false
	}
	if opts.MaxSize > 0 && e.Size > opts.MaxSize {
		return false
	}
	if !opts.SizeOnly && !e.HasHash {
		return false
	}
	return true
}

// Group is every entry sharing one content key, indexed by the tree it
// came from.
type Group struct {
	Key     Key
	PerTree [][]treeview.Entry
}

// groupAll is the first phase, shared by every grouped query: collect
// candidate sizes per tree (cheap, size is always known), then within
// each candidate size collect the per-hash groups (the expensive pass,
// since it requires a fresh hash).
func groupAll(trees []*treeview.View, opts Options) map[Key][][]treeview.Entry {
	sizeCandidates := make(map[int64]bool)
	for _, t := range trees {
		for _, e := range t.Entries() {
			if included(e, opts) {
				sizeCandidates[e.Size] = true
			}
		}
	}

	groups := make(map[Key][][]treeview.Entry)
	for size := range sizeCandidates {
		for ti, t := range trees {
			for _, e := range t.Entries() {
				if e.Size != size || !included(e, opts) {
					continue
				}
				k := keyOf(e, opts.SizeOnly)
				if groups[k] == nil {
					groups[k] = make([][]treeview.Entry, len(trees))
				}
				groups[k][ti] = append(groups[k][ti], e)
			}
		}
	}
	return groups
}

// Stream emits one Group per distinct content key across trees, ordered
// deterministically by key. It is not lazy in the strict sense (the
// corpus this design is grounded on streams per-size, then per-hash; this
// collects eagerly and replays in order) but preserves the same grouping
// contract every consumer below relies on.
func Stream(trees []*treeview.View, opts Options) []Group {
	grouped := groupAll(trees, opts)
	keys := make([]Key, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Size != keys[j].Size {
			return keys[i].Size < keys[j].Size
		}
		return keys[i].Hash < keys[j].Hash
	})
	out := make([]Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, Group{Key: k, PerTree: grouped[k]})
	}
	return out
}

func (g Group) total() int {
	n := 0
	for _, es := range g.PerTree {
		n += len(es)
	}
	return n
}

func (g Group) totalWithHardLinks(hardLinks bool) int {
	if !hardLinks {
		return g.total()
	}
	n := 0
	for _, es := range g.PerTree {
		for _, e := range es {
			if len(e.Paths) > 1 {
				n += len(e.Paths)
			} else {
				n++
			}
		}
	}
	return n
}

// Fdupes returns groups with two or more files (counting distinct paths
// to one file-id as repeats when opts.HardLinks is set).
func Fdupes(trees []*treeview.View, opts Options) []Group {
	var out []Group
	for _, g := range Stream(trees, opts) {
		if g.totalWithHardLinks(opts.HardLinks) >= 2 {
			out = append(out, g)
		}
	}
	return out
}

// OnAll returns groups with at least one file in every tree.
func OnAll(trees []*treeview.View, opts Options) []Group {
	var out []Group
	for _, g := range Stream(trees, opts) {
		ok := true
		for _, es := range g.PerTree {
			if len(es) == 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, g)
		}
	}
	return out
}

// OnFirstOnly returns groups with at least one file in the first tree and
// none in any other.
func OnFirstOnly(trees []*treeview.View, opts Options) []Group {
	return onEdgeOnly(trees, opts, 0)
}

// OnLastOnly returns groups with at least one file in the last tree and
// none in any other.
func OnLastOnly(trees []*treeview.View, opts Options) []Group {
	return onEdgeOnly(trees, opts, len(trees)-1)
}

func onEdgeOnly(trees []*treeview.View, opts Options, edge int) []Group {
	var out []Group
	for _, g := range Stream(trees, opts) {
		if len(g.PerTree[edge]) == 0 {
			continue
		}
		ok := true
		for i, es := range g.PerTree {
			if i == edge {
				continue
			}
			if len(es) != 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, g)
		}
	}
	return out
}

// OutputMode controls how a group's files are rendered to paths.
type OutputMode int

const (
	// ModePath represents each file by its lexicographically smallest
	// path.
	ModePath OutputMode = iota
	// ModeHardLink emits every path of every file.
	ModeHardLink
	// ModeAllLinks is like ModePath but lists every path of that file.
	ModeAllLinks
)

// RenderGroup flattens one tree's slice of a group into output lines per
// opts' mode.
func RenderGroup(entries []treeview.Entry, mode OutputMode) []string {
	var lines []string
	switch mode {
	case ModeHardLink:
		for _, e := range entries {
			lines = append(lines, e.SortedPaths()...)
		}
	case ModeAllLinks:
		for _, e := range entries {
			lines = append(lines, joinPaths(e.SortedPaths()))
		}
	default:
		for _, e := range entries {
			lines = append(lines, e.MinPath())
		}
	}
	return lines
}

func joinPaths(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	out := paths[0]
	for _, p := range paths[1:] {
		out += " = " + p
	}
	return out
}

// CmpStatus classifies one relative path's comparison between two trees.
type CmpStatus int

const (
	CmpIdentical CmpStatus = iota
	CmpDifferent
	CmpMissingInA
	CmpMissingInB
	CmpTypeMismatch
)

// CmpResult is one relative path's outcome from Cmp.
type CmpResult struct {
	Path   string
	Status CmpStatus
}

// Cmp reports, for every relative path present in either tree, whether
// the file there is missing, has different content, or is identical.
func Cmp(a, b *treeview.View, opts Options) []CmpResult {
	pathsA := pathSet(a)
	pathsB := pathSet(b)

	all := make(map[string]bool)
	for p := range pathsA {
		all[p] = true
	}
	for p := range pathsB {
		all[p] = true
	}

	paths := make([]string, 0, len(all))
	for p := range all {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []CmpResult
	for _, p := range paths {
		ea, okA := pathsA[p]
		eb, okB := pathsB[p]
		switch {
		case !okA:
			out = append(out, CmpResult{Path: p, Status: CmpMissingInA})
		case !okB:
			out = append(out, CmpResult{Path: p, Status: CmpMissingInB})
		case ea.Size != eb.Size:
			out = append(out, CmpResult{Path: p, Status: CmpDifferent})
		case opts.SizeOnly:
			out = append(out, CmpResult{Path: p, Status: CmpIdentical})
		case ea.HasHash && eb.HasHash && ea.Hash == eb.Hash:
			out = append(out, CmpResult{Path: p, Status: CmpIdentical})
		case ea.HasHash && eb.HasHash:
			out = append(out, CmpResult{Path: p, Status: CmpDifferent})
		default:
			out = append(out, CmpResult{Path: p, Status: CmpTypeMismatch})
		}
	}
	return out
}

func pathSet(v *treeview.View) map[string]treeview.Entry {
	out := make(map[string]treeview.Entry)
	for _, e := range v.Entries() {
		for _, p := range e.Paths {
			out[p] = e
		}
	}
	return out
}

// SearchResult is one file matching a search pattern.
type SearchResult struct {
	TreeIndex int
	Path      string
}

// Search emits every path whose whole relative path matches any of
// patterns, compiled as globs with '/' as separator ("*" stays within one
// segment, "**" crosses segments). Unlike the include/exclude filter, a
// leading "/" is not treated as an anchor and a pattern is not tried
// against path suffixes.
func Search(trees []*treeview.View, patterns []string) ([]SearchResult, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}

	var out []SearchResult
	for ti, t := range trees {
		for _, e := range t.Entries() {
			for _, p := range e.Paths {
				for _, g := range globs {
					if g.Match(p) {
						out = append(out, SearchResult{TreeIndex: ti, Path: p})
						break
					}
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TreeIndex != out[j].TreeIndex {
			return out[i].TreeIndex < out[j].TreeIndex
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// ResolveFileID lets a caller recover the underlying file-id for a path
// reported in a SearchResult or CmpResult, useful for a lookup-style
// follow-up query.
func ResolveFileID(v *treeview.View, path string) (fileid.ID, bool) {
	e, ok := v.ByPath(path)
	if !ok {
		return fileid.ID{}, false
	}
	return e.ID, true
}
