package hashdb

import (
	"path/filepath"
	"testing"

	"github.com/relinksys/hlsync/internal/fileid"
)

func open(t *testing.T, hasher string) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lnsync-001.db")
	db, err := Open(path, hasher)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertThenCommitHashRoundTrips(t *testing.T) {
	db := open(t, "xxhash32")
	id := fileid.ID{Dev: 1, Ino: 2}

	if err := db.Upsert(id, 100, 1000); err != nil {
		t.Fatal(err)
	}
	entry, ok, err := db.Lookup(id)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || entry.HasHash {
		t.Fatalf("expected pending entry without hash, got %+v ok=%v", entry, ok)
	}

	if err := db.CommitHash(id, 100, 1000, 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	entry, ok, err = db.Lookup(id)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !entry.HasHash || entry.Hash != 0xdeadbeef {
		t.Fatalf("expected committed hash, got %+v ok=%v", entry, ok)
	}
}

func TestHashKindMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lnsync-002.db")
	db, err := Open(path, "xxhash32")
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	_, err = Open(path, "xxhash64")
	if err == nil {
		t.Fatal("expected HashKindMismatch, got nil")
	}
}

func TestPruneRemovesUnkeptIDs(t *testing.T) {
	db := open(t, "xxhash32")
	a := fileid.ID{Dev: 1, Ino: 1}
	b := fileid.ID{Dev: 1, Ino: 2}
	if err := db.CommitHash(a, 10, 100, 1); err != nil {
		t.Fatal(err)
	}
	if err := db.CommitHash(b, 20, 200, 2); err != nil {
		t.Fatal(err)
	}

	removed, err := db.Prune(map[fileid.ID]bool{a: true})
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok, _ := db.Lookup(b); ok {
		t.Fatal("expected b to be pruned")
	}
	if _, ok, _ := db.Lookup(a); !ok {
		t.Fatal("expected a to survive prune")
	}
}

func TestPathsRoundTrip(t *testing.T) {
	db := open(t, "xxhash32")
	id := fileid.ID{Dev: 1, Ino: 1}
	if err := db.PutPath(id, "a/one.txt"); err != nil {
		t.Fatal(err)
	}
	if err := db.PutPath(id, "b/alias.txt"); err != nil {
		t.Fatal(err)
	}
	paths, err := db.PathsFor(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
}

func TestMarkOffline(t *testing.T) {
	db := open(t, "xxhash32")
	if db.Kind() != Online {
		t.Fatalf("expected fresh db to be online, got %s", db.Kind())
	}
	if err := db.MarkOffline(); err != nil {
		t.Fatal(err)
	}
	if db.Kind() != Offline {
		t.Fatalf("expected offline after MarkOffline, got %s", db.Kind())
	}
}
