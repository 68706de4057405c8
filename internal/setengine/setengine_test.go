package setengine

import (
	"testing"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/treeview"
)

func TestFdupesGroupsBySizeAndHash(t *testing.T) {
	tree := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 1}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"a"}},
		{ID: fileid.ID{Ino: 2}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"b"}},
		{ID: fileid.ID{Ino: 3}, Size: 4, Hash: 2, HasHash: true, Paths: []string{"c", "d"}},
	})

	groups := Fdupes([]*treeview.View{tree}, Options{})
	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group without --hard-links, got %d", len(groups))
	}

	withLinks := Fdupes([]*treeview.View{tree}, Options{HardLinks: true})
	if len(withLinks) != 2 {
		t.Fatalf("expected 2 groups with --hard-links (c/d counts too), got %d", len(withLinks))
	}
}

func TestOnAllRequiresPresenceEverywhere(t *testing.T) {
	t1 := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 1}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"a"}},
	})
	t2 := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 2}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"b"}},
	})
	t3 := treeview.FromEntries([]treeview.Entry{})

	groups := OnAll([]*treeview.View{t1, t2, t3}, Options{})
	if len(groups) != 0 {
		t.Fatalf("expected no groups present on all 3 trees, got %d", len(groups))
	}

	groups2 := OnAll([]*treeview.View{t1, t2}, Options{})
	if len(groups2) != 1 {
		t.Fatalf("expected 1 group present on both trees, got %d", len(groups2))
	}
}

func TestOnFirstOnly(t *testing.T) {
	t1 := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 1}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"a"}},
		{ID: fileid.ID{Ino: 2}, Size: 5, Hash: 2, HasHash: true, Paths: []string{"shared"}},
	})
	t2 := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 3}, Size: 5, Hash: 2, HasHash: true, Paths: []string{"shared2"}},
	})

	groups := OnFirstOnly([]*treeview.View{t1, t2}, Options{})
	if len(groups) != 1 || groups[0].Key.Size != 4 {
		t.Fatalf("expected only the size-4 file to be first-only, got %+v", groups)
	}
}

func TestCmpIdentifiesDifferences(t *testing.T) {
	a := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 1}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"same"}},
		{ID: fileid.ID{Ino: 2}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"onlyA"}},
	})
	b := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 3}, Size: 4, Hash: 1, HasHash: true, Paths: []string{"same"}},
		{ID: fileid.ID{Ino: 4}, Size: 4, Hash: 2, HasHash: true, Paths: []string{"onlyB"}},
	})

	results := Cmp(a, b, Options{})
	statuses := map[string]CmpStatus{}
	for _, r := range results {
		statuses[r.Path] = r.Status
	}
	if statuses["same"] != CmpIdentical {
		t.Errorf("expected same to be identical, got %v", statuses["same"])
	}
	if statuses["onlyA"] != CmpMissingInB {
		t.Errorf("expected onlyA missing in B, got %v", statuses["onlyA"])
	}
	if statuses["onlyB"] != CmpMissingInA {
		t.Errorf("expected onlyB missing in A, got %v", statuses["onlyB"])
	}
}

func TestSearchMatchesGlob(t *testing.T) {
	t1 := treeview.FromEntries([]treeview.Entry{
		{ID: fileid.ID{Ino: 1}, Size: 1, Paths: []string{"docs/readme.txt"}},
		{ID: fileid.ID{Ino: 2}, Size: 1, Paths: []string{"src/main.go"}},
	})

	results, err := Search([]*treeview.View{t1}, []string{"docs/*.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "docs/readme.txt" {
		t.Fatalf("unexpected search results: %+v", results)
	}
}
