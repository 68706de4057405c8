package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/filter"
	"github.com/relinksys/hlsync/internal/hashdb"
	"github.com/relinksys/hlsync/internal/treeview"
)

// location is one resolved command-line argument: either a live directory
// paired with a hash database at its root, or a standalone offline
// database file.
type location struct {
	view *treeview.View
	db   *hashdb.DB
}

func (l *location) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// dbBasenameRegexp matches the reserved database-name pattern (I4) during
// location resolution. Filesystem enumeration uses an identical pattern
// of its own (treeview's dbBasenamePattern).
func dbBasenameRegexp(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-[0-9]+\.db(-wal|-shm|-journal)?$`)
}

// pickDBPath resolves the database file under a directory root, creating
// a fresh randomized basename if none exists yet, grounded on the
// original reconciler's pick_db_basename.
func pickDBPath(cfg config.Config, root string) (string, error) {
	if cfg.DbLocation != "" {
		return cfg.DbLocation, nil
	}
	dbDir := root
	if cfg.DbRootDir != "" {
		dbDir = cfg.DbRootDir
	}
	re := dbBasenameRegexp(cfg.DbPrefix)
	entries, err := os.ReadDir(dbDir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if re.MatchString(e.Name()) {
			return filepath.Join(dbDir, e.Name()), nil
		}
	}
	return filepath.Join(dbDir, fmt.Sprintf("%s-%06d.db", cfg.DbPrefix, randomSuffix())), nil
}

// randomSuffix produces the numeric basename suffix (I4) requires to be
// randomised at creation, not derived from anything as predictable and
// collision-prone as a process id.
func randomSuffix() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4]) % 1_000_000
}

// openLocation resolves one command-line location argument. A path to an
// existing regular file is treated as an offline database; anything else
// is treated as a directory root with an online database beside it.
func openLocation(cfg config.Config, path string, f *filter.Stack) (*location, error) {
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		db, err := hashdb.Open(path, cfg.HasherID)
		if err != nil {
			return nil, err
		}
		view, err := treeview.OpenOffline(path, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &location{view: view, db: db}, nil
	}

	dbPath, err := pickDBPath(cfg, path)
	if err != nil {
		return nil, err
	}
	db, err := hashdb.Open(dbPath, cfg.HasherID)
	if err != nil {
		return nil, err
	}
	view, err := treeview.OpenOnline(path, db, cfg.DbPrefix, f)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &location{view: view, db: db}, nil
}
