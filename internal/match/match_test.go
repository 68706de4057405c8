package match

import (
	"testing"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/treeview"
)

// These tests drive matchOneKey, the per-key core of Run, directly with
// in-memory treeview.Entry values, so no directory or database is needed.
func TestRunPrefersPathOverlap(t *testing.T) {
	srcA := treeview.Entry{ID: fileid.ID{Ino: 1}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"a"}}
	srcB := treeview.Entry{ID: fileid.ID{Ino: 2}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"b"}}
	tgtA := treeview.Entry{ID: fileid.ID{Ino: 10}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"a"}}
	tgtB := treeview.Entry{ID: fileid.ID{Ino: 20}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"b"}}

	pairs := make(map[fileid.ID]fileid.ID)
	matchOneKey([]treeview.Entry{tgtA, tgtB}, []treeview.Entry{srcA, srcB}, pairs)

	if pairs[tgtA.ID] != srcA.ID {
		t.Errorf("expected tgtA to match srcA by path overlap, got %v", pairs[tgtA.ID])
	}
	if pairs[tgtB.ID] != srcB.ID {
		t.Errorf("expected tgtB to match srcB by path overlap, got %v", pairs[tgtB.ID])
	}
}

func TestRunFallsBackToLexicographicOrder(t *testing.T) {
	srcA := treeview.Entry{ID: fileid.ID{Ino: 1}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"src/aaa"}}
	srcB := treeview.Entry{ID: fileid.ID{Ino: 2}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"src/bbb"}}
	tgtX := treeview.Entry{ID: fileid.ID{Ino: 10}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"tgt/xxx"}}
	tgtY := treeview.Entry{ID: fileid.ID{Ino: 20}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"tgt/yyy"}}

	pairs := make(map[fileid.ID]fileid.ID)
	matchOneKey([]treeview.Entry{tgtX, tgtY}, []treeview.Entry{srcA, srcB}, pairs)

	if pairs[tgtX.ID] != srcA.ID || pairs[tgtY.ID] != srcB.ID {
		t.Errorf("expected deterministic lexicographic pairing, got %v", pairs)
	}
}

func TestMatchOneKeyLeavesExcessUnmatched(t *testing.T) {
	srcA := treeview.Entry{ID: fileid.ID{Ino: 1}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"a"}}
	tgtA := treeview.Entry{ID: fileid.ID{Ino: 10}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"a"}}
	tgtExtra := treeview.Entry{ID: fileid.ID{Ino: 20}, Size: 1, Hash: 1, HasHash: true, Paths: []string{"extra"}}

	pairs := make(map[fileid.ID]fileid.ID)
	matchOneKey([]treeview.Entry{tgtA, tgtExtra}, []treeview.Entry{srcA}, pairs)

	if len(pairs) != 1 {
		t.Fatalf("expected exactly 1 pair, got %v", pairs)
	}
	if _, ok := pairs[tgtExtra.ID]; ok {
		t.Errorf("expected tgtExtra to remain unmatched")
	}
}
