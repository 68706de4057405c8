// Package treeview implements the uniform read-model over a tree
// (component C): either a live directory backed by a hash database, or an
// offline database that also carries the tree's path structure.
//
// Online and offline trees share one capability set — enumerate entries,
// resolve a file-id to its paths, fetch a hash on demand — realized here
// as a tagged variant (View.offline) behind a single struct rather than a
// subtype hierarchy, per the design notes this system follows.
package treeview

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/iafan/cwalk"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/filter"
	"github.com/relinksys/hlsync/internal/hashdb"
	"github.com/relinksys/hlsync/internal/logger"
)

// dbBasenamePattern matches a hash database's own basename so it is never
// reported as a file entry (I4). The prefix is injected at match time.
func dbBasenamePattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-[0-9]+\.db(-wal|-shm|-journal)?$`)
}

// Entry is one file within a tree view: a file-id with its known metadata
// and the (possibly multiple) relative paths that alias it.
type Entry struct {
	ID    fileid.ID
	Size  int64
	Mtime int64
	Hash  uint64
	HasHash bool
	Paths []string
}

// SortedPaths returns Paths in lexicographic order without mutating Entry.
func (e Entry) SortedPaths() []string {
	out := append([]string(nil), e.Paths...)
	sort.Strings(out)
	return out
}

// MinPath returns the lexicographically smallest path, used whenever a
// single representative path for a file is required.
func (e Entry) MinPath() string {
	sp := e.SortedPaths()
	if len(sp) == 0 {
		return ""
	}
	return sp[0]
}

// View is a read-model over one tree, online or offline.
type View struct {
	Root    string // directory root for online trees, db path for offline
	DB      *hashdb.DB
	offline bool

	mu      sync.RWMutex
	entries map[fileid.ID]*Entry
	dirs    map[string]bool
}

// OpenOnline builds a View over a live directory, enumerating it with a
// bounded number of parallel directory reads (cwalk) and cross-referencing
// the tree's hash database. Paths rejected by f, or matching the database's
// own basename pattern, are never added as entries.
func OpenOnline(root string, db *hashdb.DB, dbPrefix string, f *filter.Stack) (*View, error) {
	v := &View{
		Root:    root,
		DB:      db,
		offline: false,
		entries: make(map[fileid.ID]*Entry),
		dirs:    map[string]bool{".": true},
	}
	dbNamePattern := dbBasenamePattern(dbPrefix)

	err := cwalk.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Warn("treeview: %s", err)
			return nil
		}
		if path == "." {
			return nil
		}
		relPath := filepath.ToSlash(path)
		if info.IsDir() {
			if f != nil && !f.Included(relPath, true) {
				return filepath.SkipDir
			}
			v.mu.Lock()
			v.dirs[relPath] = true
			v.mu.Unlock()
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if dbNamePattern.MatchString(filepath.Base(path)) {
			return nil
		}
		if f != nil && !f.Included(relPath, false) {
			return nil
		}

		id, _, err := fileid.FromFileInfo(info)
		if err != nil {
			logger.Warn("treeview: %s: %s", relPath, err)
			return nil
		}

		v.mu.Lock()
		if e, ok := v.entries[id]; ok {
			e.Paths = append(e.Paths, relPath)
		} else {
			v.entries[id] = &Entry{
				ID:    id,
				Size:  info.Size(),
				Mtime: info.ModTime().Unix(),
				Paths: []string{relPath},
			}
		}
		v.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("treeview: scanning %s: %w", root, err)
	}

	if db != nil {
		v.mu.Lock()
		for id, e := range v.entries {
			if cached, ok, lookupErr := db.Lookup(id); lookupErr == nil && ok && cached.HasHash {
				if cached.Size == e.Size && cached.Mtime == e.Mtime {
					e.Hash = cached.Hash
					e.HasHash = true
				}
			}
		}
		v.mu.Unlock()
	}

	return v, nil
}

// OpenOffline builds a View entirely from an offline database's path
// table, never touching a live directory.
func OpenOffline(dbPath string, db *hashdb.DB) (*View, error) {
	v := &View{
		Root:    dbPath,
		DB:      db,
		offline: true,
		entries: make(map[fileid.ID]*Entry),
		dirs:    map[string]bool{".": true},
	}

	allPaths, err := db.AllPaths()
	if err != nil {
		return nil, err
	}
	ids, err := db.AllIDs()
	if err != nil {
		return nil, err
	}
	cache := make(map[fileid.ID]hashdb.Entry, len(ids))
	for _, id := range ids {
		if e, ok, err := db.Lookup(id); err == nil && ok {
			cache[id] = e
		}
	}

	for id, paths := range allPaths {
		cached := cache[id]
		e := &Entry{
			ID:      id,
			Size:    cached.Size,
			Mtime:   cached.Mtime,
			Hash:    cached.Hash,
			HasHash: cached.HasHash,
			Paths:   paths,
		}
		v.entries[id] = e
		for _, p := range paths {
			for dir := filepath.Dir(filepath.ToSlash(p)); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
				v.dirs[dir] = true
			}
		}
	}
	return v, nil
}

// FromEntries builds a View directly from a set of entries, deriving its
// directory set from the paths present. It bypasses both OpenOnline and
// OpenOffline and is used wherever a view must be assembled in memory
// rather than read from a tree, such as the plan builder's tests.
func FromEntries(entries []Entry) *View {
	v := &View{
		offline: true,
		entries: make(map[fileid.ID]*Entry),
		dirs:    map[string]bool{".": true},
	}
	for i := range entries {
		e := entries[i]
		v.entries[e.ID] = &e
		for _, p := range e.Paths {
			for dir := filepath.Dir(filepath.ToSlash(p)); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
				v.dirs[dir] = true
			}
		}
	}
	return v
}

// IsOffline reports whether this view is database-only.
func (v *View) IsOffline() bool { return v.offline }

// Entries returns every file entry, ordered by pre-order directory walk
// (approximated here by sorting on the minimum path, which respects
// directory-contiguity for any reasonable tree).
func (v *View) Entries() []Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Entry, 0, len(v.entries))
	for _, e := range v.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinPath() < out[j].MinPath() })
	return out
}

// Lookup resolves a file-id to its entry.
func (v *View) Lookup(id fileid.ID) (Entry, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Directories returns every directory path recorded for this tree,
// including the root itself as ".".
func (v *View) Directories() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.dirs))
	for d := range v.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ByPath resolves a relative path to its entry, or false if not present.
func (v *View) ByPath(relPath string) (Entry, bool) {
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, e := range v.entries {
		for _, p := range e.Paths {
			if p == relPath {
				return *e, true
			}
		}
	}
	return Entry{}, false
}

// SetHash records a freshly computed hash on the in-memory entry (the
// hashing pipeline calls this after a successful DB commit, keeping the
// view consistent with the database for the remainder of the command).
func (v *View) SetHash(id fileid.ID, hash uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e, ok := v.entries[id]; ok {
		e.Hash = hash
		e.HasHash = true
	}
}

// AbsPath joins a tree-relative path back to an absolute filesystem path,
// valid only for online views.
func (v *View) AbsPath(relPath string) string {
	return filepath.Join(v.Root, filepath.FromSlash(relPath))
}

// StatFresh re-stats a path and reports whether its (size, mtime) still
// matches e, i.e. whether e's cached hash (if any) remains valid per (I2).
func (v *View) StatFresh(e Entry, relPath string) (bool, error) {
	info, err := os.Stat(v.AbsPath(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Size() == e.Size && info.ModTime().Unix() == e.Mtime, nil
}
