package pipeline

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/relinksys/hlsync/internal/hashdb"
	"github.com/relinksys/hlsync/internal/hashing"
	"github.com/relinksys/hlsync/internal/treeview"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunHashesEveryFileOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "world")

	dbPath := filepath.Join(t.TempDir(), "lnsync-001.db")
	db, err := hashdb.Open(dbPath, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	v, err := treeview.OpenOnline(root, db, "lnsync", nil)
	if err != nil {
		t.Fatal(err)
	}

	var stop atomic.Bool
	stats := Run(v, db, hashing.Default(), Options{Workers: 2}, &stop)
	if stats.Hashed != 2 {
		t.Fatalf("expected 2 files hashed, got %+v", stats)
	}

	for _, e := range v.Entries() {
		if !e.HasHash {
			t.Fatalf("entry %+v missing hash after Run", e)
		}
	}
}

func TestRunSkipsFreshEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	dbPath := filepath.Join(t.TempDir(), "lnsync-001.db")
	db, err := hashdb.Open(dbPath, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	v, err := treeview.OpenOnline(root, db, "lnsync", nil)
	if err != nil {
		t.Fatal(err)
	}
	var stop atomic.Bool
	Run(v, db, hashing.Default(), Options{Workers: 1}, &stop)

	v2, err := treeview.OpenOnline(root, db, "lnsync", nil)
	if err != nil {
		t.Fatal(err)
	}
	stats := Run(v2, db, hashing.Default(), Options{Workers: 1}, &stop)
	if stats.Hashed != 0 {
		t.Fatalf("expected second run to skip fresh entries, got %+v", stats)
	}
}

func TestRunHonorsStopFlag(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, filepath.Join(root, "f", string(rune('a'+i))+".txt"), "content")
	}

	dbPath := filepath.Join(t.TempDir(), "lnsync-001.db")
	db, err := hashdb.Open(dbPath, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	v, err := treeview.OpenOnline(root, db, "lnsync", nil)
	if err != nil {
		t.Fatal(err)
	}

	var stop atomic.Bool
	stop.Store(true)
	stats := Run(v, db, hashing.Default(), Options{Workers: 2}, &stop)
	if stats.Hashed != 0 {
		t.Fatalf("expected a pre-cancelled run to hash nothing, got %+v", stats)
	}
}
