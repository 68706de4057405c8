package filter

import "testing"

func TestUnmatchedPathIncluded(t *testing.T) {
	var s Stack
	if !s.Included("any/path.txt", false) {
		t.Fatal("expected empty stack to include everything")
	}
}

func TestExcludeByExtension(t *testing.T) {
	var s Stack
	if err := s.Add(Exclude, "*.tmp"); err != nil {
		t.Fatal(err)
	}
	if s.Included("a/b.tmp", false) {
		t.Fatal("expected *.tmp to exclude b.tmp")
	}
	if !s.Included("a/b.txt", false) {
		t.Fatal("expected *.tmp to leave b.txt included")
	}
}

func TestIncludeOverridesLaterExclude(t *testing.T) {
	var s Stack
	if err := s.Add(Include, "keep.txt"); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Exclude, "*.txt"); err != nil {
		t.Fatal(err)
	}
	if !s.Included("keep.txt", false) {
		t.Fatal("expected first-match-wins to keep keep.txt included")
	}
	if s.Included("other.txt", false) {
		t.Fatal("expected other.txt to fall through to the exclude rule")
	}
}

func TestAnchoredPattern(t *testing.T) {
	var s Stack
	if err := s.Add(Exclude, "/build"); err != nil {
		t.Fatal(err)
	}
	if s.Included("build", true) {
		t.Fatal("expected anchored /build to exclude root build dir")
	}
	if !s.Included("sub/build", true) {
		t.Fatal("expected anchored /build not to match nested build dir")
	}
}

func TestDirOnlyPattern(t *testing.T) {
	var s Stack
	if err := s.Add(Exclude, "cache/"); err != nil {
		t.Fatal(err)
	}
	if !s.Included("x/cache", false) {
		t.Fatal("dir-only rule should not apply to a regular file")
	}
	if s.Included("x/cache", true) {
		t.Fatal("expected dir-only rule to exclude the directory")
	}
}
