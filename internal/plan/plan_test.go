package plan

import (
	"testing"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/match"
	"github.com/relinksys/hlsync/internal/treeview"
)

func newFakeView(entries ...treeview.Entry) *treeview.View {
	return treeview.FromEntries(entries)
}

func TestScenarioRename(t *testing.T) {
	source := newFakeView(treeview.Entry{ID: fileid.ID{Ino: 1}, Paths: []string{"a/one.txt"}})
	target := newFakeView(treeview.Entry{ID: fileid.ID{Ino: 1}, Paths: []string{"b/one.txt"}})

	m := match.Result{Pairs: map[fileid.ID]fileid.ID{{Ino: 1}: {Ino: 1}}}
	steps, err := Build(source, target, m, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var sawRename bool
	for _, s := range steps {
		if s.Kind == Rename && s.From == "b/one.txt" && s.To == "a/one.txt" {
			sawRename = true
		}
	}
	if !sawRename {
		t.Fatalf("expected a rename b/one.txt -> a/one.txt, got %v", Render(steps))
	}
}

func TestScenarioHardLinkCreation(t *testing.T) {
	id := fileid.ID{Ino: 1}
	source := newFakeView(treeview.Entry{ID: id, Paths: []string{"p", "q"}})
	target := newFakeView(treeview.Entry{ID: id, Paths: []string{"p"}})

	m := match.Result{Pairs: map[fileid.ID]fileid.ID{id: id}}
	steps, err := Build(source, target, m, Options{})
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, s := range steps {
		if s.Kind == Link && s.To == "q" {
			found = true
		}
		if s.Kind == Unlink || s.Kind == Rename {
			t.Fatalf("expected only a link, got %v", Render(steps))
		}
	}
	if !found {
		t.Fatalf("expected a link to q, got %v", Render(steps))
	}
}

func TestScenarioTwoCycleUsesStash(t *testing.T) {
	idA := fileid.ID{Ino: 1}
	idB := fileid.ID{Ino: 2}
	source := newFakeView(
		treeview.Entry{ID: idA, Paths: []string{"a"}},
		treeview.Entry{ID: idB, Paths: []string{"b"}},
	)
	target := newFakeView(
		treeview.Entry{ID: idA, Paths: []string{"b"}},
		treeview.Entry{ID: idB, Paths: []string{"a"}},
	)

	m := match.Result{Pairs: map[fileid.ID]fileid.ID{idA: idA, idB: idB}}
	steps, err := Build(source, target, m, Options{})
	if err != nil {
		t.Fatal(err)
	}

	var stashed bool
	for _, s := range steps {
		if s.Kind == Rename && (s.To == ".lnsync-stash-1") {
			stashed = true
		}
	}
	if !stashed {
		t.Fatalf("expected a stash rename to break the 2-cycle, got %v", Render(steps))
	}
	if len(steps) != 3 {
		t.Fatalf("expected exactly 3 rename steps for a 2-cycle, got %v", Render(steps))
	}
}

func TestScenarioUnmatchedTargetIsUntouched(t *testing.T) {
	idKeep := fileid.ID{Ino: 1}
	idExtra := fileid.ID{Ino: 2}
	source := newFakeView(treeview.Entry{ID: idKeep, Paths: []string{"keep"}})
	target := newFakeView(
		treeview.Entry{ID: idKeep, Paths: []string{"keep"}},
		treeview.Entry{ID: idExtra, Paths: []string{"extra"}},
	)

	m := match.Result{Pairs: map[fileid.ID]fileid.ID{idKeep: idKeep}, UnmatchedTarget: []fileid.ID{idExtra}}
	steps, err := Build(source, target, m, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 0 {
		t.Fatalf("expected an empty plan when source and target already match, got %v", Render(steps))
	}
}
