// Package hashdb implements the per-tree hash database (component B): a
// single SQLite file mapping file-id to (size, mtime, hash), with a small
// header recording schema version, hasher identifier and database kind.
package hashdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bobg/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/herrors"
	"github.com/relinksys/hlsync/internal/logger"
)

// SchemaVersion is the database schema this build understands. Opening a
// database stamped with a different version fails with DbSchemaMismatch.
const SchemaVersion = 1

// Kind distinguishes an online database (directory-backed tree) from an
// offline one (database-only tree carrying its own path table).
type Kind string

const (
	Online  Kind = "online"
	Offline Kind = "offline"
)

// Entry is one row of the entries table: the cached hash state for a
// single file-id.
type Entry struct {
	ID    fileid.ID
	Size  int64
	Mtime int64
	Hash  uint64
	// HasHash is false for a row written by Upsert and not hashed since.
	HasHash bool
}

// DB is an open handle on one tree's hash database. It owns the advisory
// whole-file lock acquired in Open and released in Close.
type DB struct {
	path    string
	conn    *sql.DB
	flocker flock.Locker
	kind    Kind
	hasher  string
}

// Open opens or creates the database at path for the given hasher
// identifier, enforcing the hash-kind and schema-version invariants. A
// concurrently held advisory lock, or a schema/hasher mismatch, aborts
// before any tree mutation.
func Open(path string, hasherID string) (*DB, error) {
	var fl flock.Locker
	if err := fl.Lock(path); err != nil {
		return nil, &herrors.DbOpenFailed{Path: path, Err: err}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		fl.Unlock(path)
		return nil, &herrors.DbOpenFailed{Path: path, Err: err}
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		fl.Unlock(path)
		return nil, &herrors.DbOpenFailed{Path: path, Err: err}
	}

	db := &DB{path: path, conn: conn, flocker: fl}
	if err := db.init(hasherID); err != nil {
		conn.Close()
		fl.Unlock(path)
		return nil, err
	}
	return db, nil
}

func (db *DB) init(hasherID string) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`,
		`CREATE TABLE IF NOT EXISTS entries (
			file_id_dev INTEGER NOT NULL,
			file_id_ino INTEGER NOT NULL,
			size INTEGER NOT NULL,
			mtime INTEGER NOT NULL,
			hash INTEGER,
			has_hash INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (file_id_dev, file_id_ino)
		)`,
		`CREATE TABLE IF NOT EXISTS paths (
			file_id_dev INTEGER NOT NULL,
			file_id_ino INTEGER NOT NULL,
			path BLOB NOT NULL,
			UNIQUE (path)
		)`,
		`CREATE INDEX IF NOT EXISTS paths_by_file_id ON paths (file_id_dev, file_id_ino)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return &herrors.DbCorrupt{Path: db.path, Err: err}
		}
	}

	row := db.conn.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`)
	var versionStr string
	switch err := row.Scan(&versionStr); err {
	case sql.ErrNoRows:
		// Fresh database: stamp the header.
		if err := db.setMeta("schema_version", fmt.Sprintf("%d", SchemaVersion)); err != nil {
			return &herrors.DbCorrupt{Path: db.path, Err: err}
		}
		if err := db.setMeta("hasher", hasherID); err != nil {
			return &herrors.DbCorrupt{Path: db.path, Err: err}
		}
		if err := db.setMeta("kind", string(Online)); err != nil {
			return &herrors.DbCorrupt{Path: db.path, Err: err}
		}
		db.kind = Online
		db.hasher = hasherID
		return nil
	case nil:
		var found int
		fmt.Sscanf(versionStr, "%d", &found)
		if found != SchemaVersion {
			return &herrors.DbSchemaMismatch{Path: db.path, Found: found, Want: SchemaVersion}
		}
	default:
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}

	foundHasher, err := db.getMeta("hasher")
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	if foundHasher != hasherID {
		return &herrors.HashKindMismatch{Path: db.path, Found: foundHasher, Want: hasherID}
	}
	db.hasher = hasherID

	kindStr, err := db.getMeta("kind")
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	db.kind = Kind(kindStr)
	return nil
}

func (db *DB) setMeta(key, value string) error {
	_, err := db.conn.Exec(`INSERT INTO meta(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (db *DB) getMeta(key string) (string, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	return value, err
}

// Kind reports whether this database is online or offline.
func (db *DB) Kind() Kind { return db.kind }

// Hasher reports the hasher identifier stamped in this database's header.
func (db *DB) Hasher() string { return db.hasher }

// Close releases the connection and the advisory lock. Safe to call once.
func (db *DB) Close() error {
	connErr := db.conn.Close()
	lockErr := db.flocker.Unlock(db.path)
	if connErr != nil {
		return connErr
	}
	return lockErr
}

// Lookup returns the cached entry for id, and whether one exists.
func (db *DB) Lookup(id fileid.ID) (Entry, bool, error) {
	row := db.conn.QueryRow(`SELECT size, mtime, hash, has_hash FROM entries
		WHERE file_id_dev = ? AND file_id_ino = ?`, id.Dev, id.Ino)
	var (
		size, mtime int64
		hash        sql.NullInt64
		hasHash     int
	)
	switch err := row.Scan(&size, &mtime, &hash, &hasHash); err {
	case sql.ErrNoRows:
		return Entry{}, false, nil
	case nil:
		return Entry{
			ID:      id,
			Size:    size,
			Mtime:   mtime,
			Hash:    uint64(hash.Int64),
			HasHash: hasHash != 0,
		}, true, nil
	default:
		return Entry{}, false, &herrors.DbCorrupt{Path: db.path, Err: err}
	}
}

// Upsert records size/mtime for id without a hash, clearing any hash the
// row held. Tree enumeration does not call it; unhashed file-ids simply
// have no row until the pipeline commits one.
func (db *DB) Upsert(id fileid.ID, size, mtime int64) error {
	_, err := db.conn.Exec(`INSERT INTO entries(file_id_dev, file_id_ino, size, mtime, hash, has_hash)
		VALUES (?, ?, ?, ?, NULL, 0)
		ON CONFLICT(file_id_dev, file_id_ino) DO UPDATE SET
			size = excluded.size, mtime = excluded.mtime, hash = NULL, has_hash = 0`,
		id.Dev, id.Ino, size, mtime)
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	return nil
}

// CommitHash records a freshly computed hash for id at the given
// (size, mtime), overwriting any prior entry. It is the single write path
// the hashing pipeline's writer goroutine calls.
func (db *DB) CommitHash(id fileid.ID, size, mtime int64, hash uint64) error {
	_, err := db.conn.Exec(`INSERT INTO entries(file_id_dev, file_id_ino, size, mtime, hash, has_hash)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(file_id_dev, file_id_ino) DO UPDATE SET
			size = excluded.size, mtime = excluded.mtime, hash = excluded.hash, has_hash = 1`,
		id.Dev, id.Ino, size, mtime, int64(hash))
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	return nil
}

// Forget removes the entry for id, used by cleandb when a file-id no
// longer exists in the tree.
func (db *DB) Forget(id fileid.ID) error {
	_, err := db.conn.Exec(`DELETE FROM entries WHERE file_id_dev = ? AND file_id_ino = ?`, id.Dev, id.Ino)
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	_, err = db.conn.Exec(`DELETE FROM paths WHERE file_id_dev = ? AND file_id_ino = ?`, id.Dev, id.Ino)
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	return nil
}

// AllIDs returns every file-id currently recorded in entries.
func (db *DB) AllIDs() ([]fileid.ID, error) {
	rows, err := db.conn.Query(`SELECT file_id_dev, file_id_ino FROM entries`)
	if err != nil {
		return nil, &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	defer rows.Close()
	var ids []fileid.ID
	for rows.Next() {
		var dev, ino uint64
		if err := rows.Scan(&dev, &ino); err != nil {
			return nil, &herrors.DbCorrupt{Path: db.path, Err: err}
		}
		ids = append(ids, fileid.ID{Dev: dev, Ino: ino})
	}
	return ids, rows.Err()
}

// Prune deletes every entries/paths row whose file-id is not in keep, and
// returns the number of entries removed. This is cleandb's core step.
func (db *DB) Prune(keep map[fileid.ID]bool) (int, error) {
	ids, err := db.AllIDs()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		if keep[id] {
			continue
		}
		if err := db.Forget(id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Compact runs VACUUM after a Prune, matching the original reconciler's
// compact-on-cleandb behavior.
func (db *DB) Compact() error {
	t0 := time.Now()
	_, err := db.conn.Exec(`VACUUM`)
	logger.Debug("hashdb: compact %s in %s", db.path, time.Since(t0))
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	return nil
}

// MarkOffline stamps the database header as offline, making mkoffline
// idempotent to call twice.
func (db *DB) MarkOffline() error {
	if err := db.setMeta("kind", string(Offline)); err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	db.kind = Offline
	return nil
}

// PutPath records path as a path of id, used by mkoffline to snapshot the
// tree structure. The online walker does not write the path table.
func (db *DB) PutPath(id fileid.ID, path string) error {
	_, err := db.conn.Exec(`INSERT INTO paths(file_id_dev, file_id_ino, path) VALUES(?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET file_id_dev = excluded.file_id_dev, file_id_ino = excluded.file_id_ino`,
		id.Dev, id.Ino, []byte(path))
	if err != nil {
		return &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	return nil
}

// PathsFor returns every path recorded for id, used by offline tree views.
func (db *DB) PathsFor(id fileid.ID) ([]string, error) {
	rows, err := db.conn.Query(`SELECT path FROM paths WHERE file_id_dev = ? AND file_id_ino = ?`, id.Dev, id.Ino)
	if err != nil {
		return nil, &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p []byte
		if err := rows.Scan(&p); err != nil {
			return nil, &herrors.DbCorrupt{Path: db.path, Err: err}
		}
		paths = append(paths, string(p))
	}
	return paths, rows.Err()
}

// AllPaths returns every (file-id, path) pair recorded in the path table,
// used to enumerate an offline tree view without ever touching a live
// directory.
func (db *DB) AllPaths() (map[fileid.ID][]string, error) {
	rows, err := db.conn.Query(`SELECT file_id_dev, file_id_ino, path FROM paths`)
	if err != nil {
		return nil, &herrors.DbCorrupt{Path: db.path, Err: err}
	}
	defer rows.Close()
	out := make(map[fileid.ID][]string)
	for rows.Next() {
		var dev, ino uint64
		var p []byte
		if err := rows.Scan(&dev, &ino, &p); err != nil {
			return nil, &herrors.DbCorrupt{Path: db.path, Err: err}
		}
		id := fileid.ID{Dev: dev, Ino: ino}
		out[id] = append(out[id], string(p))
	}
	return out, rows.Err()
}
