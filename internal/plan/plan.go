// Package plan implements the plan builder and executor (component F):
// turning a matching into an ordered, collision-free sequence of
// mkdir/rename/link/unlink/rmdir operations on the target tree, and
// either executing or rendering that sequence as text for a dry run.
package plan

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/herrors"
	"github.com/relinksys/hlsync/internal/match"
	"github.com/relinksys/hlsync/internal/treeview"
)

// Kind identifies one filesystem mutation verb.
type Kind string

const (
	Mkdir  Kind = "mkdir"
	Rename Kind = "rename"
	Link   Kind = "link"
	Unlink Kind = "unlink"
	Rmdir  Kind = "rmdir"
)

// Step is one scheduled mutation. From is empty for Mkdir/Rmdir. Witness
// is set on Unlink, naming another surviving path to the same file, as a
// diagnostic anchor mirroring the original reconciler's undo hint.
type Step struct {
	Kind    Kind
	From    string
	To      string
	FileID  fileid.ID
	Witness string
}

// String renders one step the way dry-run output and logs present it:
// the verb first, then its path arguments.
func (s Step) String() string {
	switch s.Kind {
	case Mkdir, Rmdir:
		return fmt.Sprintf("%s %s", s.Kind, s.To)
	case Unlink:
		return fmt.Sprintf("%s %s", s.Kind, s.From)
	default:
		return fmt.Sprintf("%s %s -> %s", s.Kind, s.From, s.To)
	}
}

// Options controls plan construction.
type Options struct {
	// CaseInsensitive treats paths differing only in case as identical
	// when checking destination occupancy, per (P4).
	CaseInsensitive bool
}

type pairPlan struct {
	fileID   fileid.ID
	common   []string
	toAdd    []string
	toRemove []string
}

// Build constructs the ordered step sequence that realizes m on target,
// honoring (P1)-(P5). It never mutates target; call Execute to apply the
// result, or Render to print it for --dry-run.
func Build(source, target *treeview.View, m match.Result, opts Options) ([]Step, error) {
	b := &builder{
		source:     source,
		target:     target,
		opts:       opts,
		pathOwner:  make(map[string]fileid.ID),
		curAliases: make(map[fileid.ID]map[string]bool),
	}

	for _, e := range target.Entries() {
		aliases := make(map[string]bool, len(e.Paths))
		for _, p := range e.Paths {
			b.pathOwner[b.key(p)] = e.ID
			aliases[p] = true
		}
		b.curAliases[e.ID] = aliases
	}
	for _, d := range target.Directories() {
		b.existingDirs(d)
	}

	// Snapshot the pre-simulation target state: mkdir occupancy must be
	// checked against what is actually on disk before any step runs, not
	// against pathOwner after renames have already (only logically) freed
	// a path, since every Mkdir step is scheduled and executed before any
	// rename or link in the final sequence.
	b.origPathOwner = make(map[string]fileid.ID, len(b.pathOwner))
	for k, v := range b.pathOwner {
		b.origPathOwner[k] = v
	}

	var pairs []pairPlan
	for tid, sid := range m.Pairs {
		tEntry, _ := target.Lookup(tid)
		sEntry, _ := source.Lookup(sid)
		pairs = append(pairs, buildPairPlan(tid, tEntry, sEntry))
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].fileID.Less(pairs[j].fileID) })

	if err := b.checkPathTypeConflicts(pairs); err != nil {
		return nil, err
	}

	var pendingLinkRename []*linkRenameOp
	for _, p := range pairs {
		n := len(p.toRemove)
		if len(p.toAdd) < n {
			n = len(p.toAdd)
		}
		for i := 0; i < n; i++ {
			pendingLinkRename = append(pendingLinkRename, &linkRenameOp{
				fileID:       p.fileID,
				intendedFrom: p.toRemove[i],
				dest:         p.toAdd[i],
				isRename:     true,
			})
		}
		for i := n; i < len(p.toAdd); i++ {
			pendingLinkRename = append(pendingLinkRename, &linkRenameOp{
				fileID:   p.fileID,
				dest:     p.toAdd[i],
				isRename: false,
			})
		}
	}

	scheduled, err := b.scheduleLinksAndRenames(pendingLinkRename)
	if err != nil {
		return nil, err
	}

	var unlinks []Step
	for _, p := range pairs {
		n := len(p.toRemove)
		if len(p.toAdd) < n {
			n = len(p.toAdd)
		}
		for i := n; i < len(p.toRemove); i++ {
			relPath := p.toRemove[i]
			if !b.curAliases[p.fileID][relPath] {
				continue // already consumed as a stash source
			}
			witness := anyOtherAlias(b.curAliases[p.fileID], relPath)
			b.unlinkPath(p.fileID, relPath)
			unlinks = append(unlinks, Step{Kind: Unlink, From: relPath, FileID: p.fileID, Witness: witness})
		}
	}

	mkdirs := b.mkdirSteps(scheduled)
	for _, m := range mkdirs {
		if _, occupied := b.origPathOwner[b.key(m.To)]; occupied {
			return nil, &herrors.TargetPathTypeConflict{Path: m.To}
		}
	}
	rmdirs := b.rmdirSteps()

	steps := make([]Step, 0, len(mkdirs)+len(scheduled)+len(unlinks)+len(rmdirs))
	steps = append(steps, mkdirs...)
	steps = append(steps, scheduled...)
	steps = append(steps, unlinks...)
	steps = append(steps, rmdirs...)
	return steps, nil
}

func buildPairPlan(tid fileid.ID, t, s treeview.Entry) pairPlan {
	tSet := make(map[string]bool, len(t.Paths))
	for _, p := range t.Paths {
		tSet[p] = true
	}
	sSet := make(map[string]bool, len(s.Paths))
	for _, p := range s.Paths {
		sSet[p] = true
	}

	var common, toAdd, toRemove []string
	for _, p := range s.Paths {
		if tSet[p] {
			common = append(common, p)
		} else {
			toAdd = append(toAdd, p)
		}
	}
	for _, p := range t.Paths {
		if !sSet[p] {
			toRemove = append(toRemove, p)
		}
	}
	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return pairPlan{fileID: tid, common: common, toAdd: toAdd, toRemove: toRemove}
}

func anyOtherAlias(aliases map[string]bool, exclude string) string {
	best := ""
	for p := range aliases {
		if p == exclude {
			continue
		}
		if best == "" || p < best {
			best = p
		}
	}
	return best
}

type linkRenameOp struct {
	fileID       fileid.ID
	intendedFrom string // empty for a pure link
	dest         string
	isRename     bool
	scheduled    bool
}

type builder struct {
	source, target *treeview.View
	opts           Options

	pathOwner      map[string]fileid.ID
	origPathOwner  map[string]fileid.ID
	curAliases     map[fileid.ID]map[string]bool
	existingDirSet map[string]bool
}

func (b *builder) key(p string) string {
	if b.opts.CaseInsensitive {
		return strings.ToLower(p)
	}
	return p
}

func (b *builder) existingDirs(d string) {
	if b.existingDirSet == nil {
		b.existingDirSet = make(map[string]bool)
	}
	b.existingDirSet[d] = true
}

func (b *builder) checkPathTypeConflicts(pairs []pairPlan) error {
	seen := make(map[string]string)
	for _, p := range pairs {
		for _, dest := range p.toAdd {
			k := b.key(dest)
			if prior, ok := seen[k]; ok && prior != dest {
				return &herrors.TargetPathTypeConflict{Path: dest}
			}
			seen[k] = dest
		}
	}
	return nil
}

// scheduleLinksAndRenames resolves link/rename destinations that are
// blocked by another file's current path, re-scanning to a fixed point
// and inserting a stash link to break a cycle when no progress is made.
func (b *builder) scheduleLinksAndRenames(pending []*linkRenameOp) ([]Step, error) {
	var scheduled []Step
	stashCounter := 0

	for {
		progress := false
		for _, op := range pending {
			if op.scheduled {
				continue
			}
			destKey := b.key(op.dest)
			if owner, occupied := b.pathOwner[destKey]; occupied {
				if owner == op.fileID {
					op.scheduled = true
					progress = true
					continue
				}
				continue // blocked; try again next pass or after a stash
			}
			from := b.resolveFrom(op)
			b.applyLinkOrRename(op, from)
			if op.isRename {
				scheduled = append(scheduled, Step{Kind: Rename, From: from, To: op.dest, FileID: op.fileID})
			} else {
				scheduled = append(scheduled, Step{Kind: Link, From: from, To: op.dest, FileID: op.fileID})
			}
			op.scheduled = true
			progress = true
		}

		if allScheduled(pending) {
			return scheduled, nil
		}
		if progress {
			continue
		}

		// Stuck: every remaining op is blocked by an occupant. Break the
		// deadlock by stashing the first blocker's occupied path aside
		// under a fresh name, then retry scheduling.
		blocked := firstBlocked(pending)
		if blocked == nil {
			return scheduled, nil
		}
		destKey := b.key(blocked.dest)
		occupant := b.pathOwner[destKey]
		stashCounter++
		stashPath := fmt.Sprintf(".lnsync-stash-%d", stashCounter)
		occupantFrom := blocked.dest
		b.applyRenameRaw(occupant, occupantFrom, stashPath)
		scheduled = append(scheduled, Step{Kind: Rename, From: occupantFrom, To: stashPath, FileID: occupant})
	}
}

func allScheduled(pending []*linkRenameOp) bool {
	for _, op := range pending {
		if !op.scheduled {
			return false
		}
	}
	return true
}

func firstBlocked(pending []*linkRenameOp) *linkRenameOp {
	for _, op := range pending {
		if !op.scheduled {
			return op
		}
	}
	return nil
}

// resolveFrom picks the current alias to link/rename from: the intended
// source path if it still belongs to the file, or (if it was stashed away
// to break a cycle) whichever alias currently does.
func (b *builder) resolveFrom(op *linkRenameOp) string {
	aliases := b.curAliases[op.fileID]
	if op.intendedFrom != "" && aliases[op.intendedFrom] {
		return op.intendedFrom
	}
	best := ""
	for p := range aliases {
		if best == "" || p < best {
			best = p
		}
	}
	return best
}

func (b *builder) applyLinkOrRename(op *linkRenameOp, from string) {
	destKey := b.key(op.dest)
	b.pathOwner[destKey] = op.fileID
	if b.curAliases[op.fileID] == nil {
		b.curAliases[op.fileID] = make(map[string]bool)
	}
	b.curAliases[op.fileID][op.dest] = true
	if op.isRename {
		delete(b.curAliases[op.fileID], from)
		delete(b.pathOwner, b.key(from))
	}
}

func (b *builder) applyRenameRaw(id fileid.ID, from, to string) {
	delete(b.pathOwner, b.key(from))
	if b.curAliases[id] != nil {
		delete(b.curAliases[id], from)
	} else {
		b.curAliases[id] = make(map[string]bool)
	}
	b.pathOwner[b.key(to)] = id
	b.curAliases[id][to] = true
}

func (b *builder) unlinkPath(id fileid.ID, p string) {
	delete(b.pathOwner, b.key(p))
	if b.curAliases[id] != nil {
		delete(b.curAliases[id], p)
	}
}

// mkdirSteps computes the directory prefixes newly required by scheduled
// destinations, ordered parent-before-child (P3).
func (b *builder) mkdirSteps(scheduled []Step) []Step {
	needed := make(map[string]bool)
	for _, s := range scheduled {
		if s.Kind != Rename && s.Kind != Link {
			continue
		}
		for dir := path.Dir(s.To); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if b.existingDirSet != nil && b.existingDirSet[dir] {
				break
			}
			needed[dir] = true
		}
	}
	dirs := make([]string, 0, len(needed))
	for d := range needed {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], "/") < strings.Count(dirs[j], "/") || (strings.Count(dirs[i], "/") == strings.Count(dirs[j], "/") && dirs[i] < dirs[j])
	})
	steps := make([]Step, 0, len(dirs))
	for _, d := range dirs {
		steps = append(steps, Step{Kind: Mkdir, To: d})
		b.existingDirs(d)
	}
	return steps
}

// rmdirSteps computes directories present on the target that no longer
// contain any surviving path, ordered child-before-parent so a parent
// empties only after its children are removed.
func (b *builder) rmdirSteps() []Step {
	stillUsed := make(map[string]bool)
	for p := range b.pathOwner {
		for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
			stillUsed[dir] = true
		}
	}
	var empties []string
	for _, d := range b.target.Directories() {
		if d == "." || stillUsed[d] {
			continue
		}
		empties = append(empties, d)
	}
	sort.Slice(empties, func(i, j int) bool {
		return strings.Count(empties[i], "/") > strings.Count(empties[j], "/") || (strings.Count(empties[i], "/") == strings.Count(empties[j], "/") && empties[i] > empties[j])
	})
	steps := make([]Step, 0, len(empties))
	for _, d := range empties {
		steps = append(steps, Step{Kind: Rmdir, To: d})
	}
	return steps
}

// Render produces the textual form of steps for dry-run output, one line
// per operation.
func Render(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.String()
	}
	return out
}
