package treeview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relinksys/hlsync/internal/hashdb"
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

func TestOpenOnlineGroupsHardLinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	if err := os.Link(filepath.Join(root, "a.txt"), filepath.Join(root, "b.txt")); err != nil {
		t.Skipf("hard links unsupported: %s", err)
	}

	dbPath := filepath.Join(t.TempDir(), "lnsync-001.db")
	db, err := hashdb.Open(dbPath, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	v, err := OpenOnline(root, db, "lnsync", nil)
	if err != nil {
		t.Fatal(err)
	}
	entries := v.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one file-id for two hard links, got %d entries", len(entries))
	}
	if len(entries[0].Paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", entries[0].Paths)
	}
}

func TestOpenOnlineSkipsOwnDatabase(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	dbPath := filepath.Join(root, "lnsync-001.db")
	db, err := hashdb.Open(dbPath, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	v, err := OpenOnline(root, db, "lnsync", nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range v.Entries() {
		for _, p := range e.Paths {
			if filepath.Base(p) == "lnsync-001.db" {
				t.Fatalf("database file leaked into entries: %s", p)
			}
		}
	}
}

func TestOfflineRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	dbPath := filepath.Join(t.TempDir(), "lnsync-001.db")
	db, err := hashdb.Open(dbPath, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	online, err := OpenOnline(root, db, "lnsync", nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range online.Entries() {
		for _, p := range e.Paths {
			if err := db.PutPath(e.ID, p); err != nil {
				t.Fatal(err)
			}
		}
		if err := db.CommitHash(e.ID, e.Size, e.Mtime, 0x42); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.MarkOffline(); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db2, err := hashdb.Open(dbPath, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()
	offline, err := OpenOffline(dbPath, db2)
	if err != nil {
		t.Fatal(err)
	}
	entries := offline.Entries()
	if len(entries) != 1 || entries[0].MinPath() != "a.txt" {
		t.Fatalf("unexpected offline entries: %+v", entries)
	}
	if !entries[0].HasHash || entries[0].Hash != 0x42 {
		t.Fatalf("expected hash to survive round trip, got %+v", entries[0])
	}
}
