// Package fileid identifies regular files independently of their pathname.
//
// Online trees use the OS (device, inode) pair, which is stable and equal
// for every hard link to the same file. Offline trees have no live inode to
// query; their path table stores the (device, inode) pairs observed when
// mkoffline snapshotted the tree, and those recorded pairs serve as their
// ids. Offline builds a synthetic id, but no snapshot path assigns one.
package fileid

import "os"

// ID uniquely identifies a file within one tree. It is comparable and
// usable as a map key.
type ID struct {
	Dev uint64
	Ino uint64
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id.Dev == 0 && id.Ino == 0 }

// Less orders ids, used only to make output deterministic in tests and
// listings; it carries no domain meaning.
func (id ID) Less(other ID) bool {
	if id.Dev != other.Dev {
		return id.Dev < other.Dev
	}
	return id.Ino < other.Ino
}

// Offline synthesizes an ID for an offline tree from a sequential counter.
// Device 0 never occurs for a real online file, so offline ids are placed
// on a reserved device number to keep them out of the online id space.
func Offline(seq uint64) ID {
	return ID{Dev: 0, Ino: seq}
}

// FromFileInfo extracts the (device, inode) pair from an os.FileInfo
// produced by lstat/stat on a regular file, and its current hard-link
// count. It returns an error if the platform does not expose *syscall.Stat_t
// (unsupported for this build target).
func FromFileInfo(fi os.FileInfo) (ID, uint64, error) {
	return fromFileInfo(fi)
}
