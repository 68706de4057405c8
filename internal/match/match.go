// Package match implements the reconciliation algorithm (component E): a
// deterministic, single-pass pairing of target file-ids to source
// file-ids by content key, preferring pairs that share a path to minimize
// the number of rename operations the plan builder later emits.
//
// This intentionally does not attempt the exhaustive backtracking search
// a from-scratch port of the reconciled system would use to resolve every
// rename permutation; that search can explore cycles among files sharing
// a basename and is out of scope here (see the non-goal on cycles of
// length >= 3). One deterministic greedy pass is simpler to reason about
// and never corrupts the target, only occasionally leaves a sub-optimal
// rename sequence.
package match

import (
	"sort"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/treeview"
)

// Key is the content key files are grouped by: (size, hash), or size
// alone in size-only mode.
type Key struct {
	Size     int64
	Hash     uint64
	SizeOnly bool
}

// Result is a partial matching between a target view and a source view.
type Result struct {
	Pairs            map[fileid.ID]fileid.ID // target id -> source id
	UnmatchedTarget  []fileid.ID
	UnmatchedSource  []fileid.ID
}

// Options controls the match.
type Options struct {
	SizeOnly bool
}

func keyOf(e treeview.Entry, sizeOnly bool) Key {
	if sizeOnly {
		return Key{Size: e.Size, SizeOnly: true}
	}
	return Key{Size: e.Size, Hash: e.Hash}
}

// Run pairs every target file-id to a source file-id sharing its content
// key, following the preference order spec.md §4.2 describes: maximum
// path overlap first, then lexicographic-minimum-path order for whatever
// is left.
func Run(source, target *treeview.View, opts Options) Result {
	res := Result{Pairs: make(map[fileid.ID]fileid.ID)}

	bySourceKey := make(map[Key][]treeview.Entry)
	for _, e := range source.Entries() {
		if !opts.SizeOnly && !e.HasHash {
			continue
		}
		k := keyOf(e, opts.SizeOnly)
		bySourceKey[k] = append(bySourceKey[k], e)
	}
	byTargetKey := make(map[Key][]treeview.Entry)
	for _, e := range target.Entries() {
		if !opts.SizeOnly && !e.HasHash {
			continue
		}
		k := keyOf(e, opts.SizeOnly)
		byTargetKey[k] = append(byTargetKey[k], e)
	}

	keys := make([]Key, 0, len(byTargetKey))
	for k := range byTargetKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Size != keys[j].Size {
			return keys[i].Size < keys[j].Size
		}
		return keys[i].Hash < keys[j].Hash
	})

	for _, k := range keys {
		targets := byTargetKey[k]
		sources := bySourceKey[k]
		matchOneKey(targets, sources, res.Pairs)
	}

	matchedSource := make(map[fileid.ID]bool, len(res.Pairs))
	for _, sid := range res.Pairs {
		matchedSource[sid] = true
	}
	for _, e := range target.Entries() {
		if !opts.SizeOnly && !e.HasHash {
			res.UnmatchedTarget = append(res.UnmatchedTarget, e.ID)
			continue
		}
		if _, ok := res.Pairs[e.ID]; !ok {
			res.UnmatchedTarget = append(res.UnmatchedTarget, e.ID)
		}
	}
	for _, e := range source.Entries() {
		if !opts.SizeOnly && !e.HasHash {
			res.UnmatchedSource = append(res.UnmatchedSource, e.ID)
			continue
		}
		if !matchedSource[e.ID] {
			res.UnmatchedSource = append(res.UnmatchedSource, e.ID)
		}
	}
	return res
}

// matchOneKey pairs targets and sources sharing one content key,
// mutating pairs in place.
func matchOneKey(targets, sources []treeview.Entry, pairs map[fileid.ID]fileid.ID) {
	sort.Slice(targets, func(i, j int) bool { return targets[i].MinPath() < targets[j].MinPath() })
	sort.Slice(sources, func(i, j int) bool { return sources[i].MinPath() < sources[j].MinPath() })

	usedSource := make(map[int]bool, len(sources))

	overlap := func(t, s treeview.Entry) int {
		sp := make(map[string]bool, len(s.Paths))
		for _, p := range s.Paths {
			sp[p] = true
		}
		n := 0
		for _, p := range t.Paths {
			if sp[p] {
				n++
			}
		}
		return n
	}

	// Preference pass: for each target (in deterministic order), pick the
	// unused source with the largest path overlap, breaking ties by the
	// lexicographically smallest source path.
	remainingTargets := make([]int, 0, len(targets))
	for ti := range targets {
		best := -1
		bestOverlap := 0
		for si, s := range sources {
			if usedSource[si] {
				continue
			}
			o := overlap(targets[ti], s)
			if o == 0 {
				continue
			}
			if best == -1 || o > bestOverlap ||
				(o == bestOverlap && s.MinPath() < sources[best].MinPath()) {
				best = si
				bestOverlap = o
			}
		}
		if best >= 0 {
			pairs[targets[ti].ID] = sources[best].ID
			usedSource[best] = true
		} else {
			remainingTargets = append(remainingTargets, ti)
		}
	}

	// Arbitrary-but-deterministic pass over what's left.
	si := 0
	for _, ti := range remainingTargets {
		for si < len(sources) && usedSource[si] {
			si++
		}
		if si >= len(sources) {
			break
		}
		pairs[targets[ti].ID] = sources[si].ID
		usedSource[si] = true
		si++
	}
}
