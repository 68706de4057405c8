// Package herrors defines the typed error kinds shared across the tree
// model, hashing pipeline, match engine and plan executor.
//
// Structural errors (database, hash-kind) are meant to abort a command
// before any tree mutation; per-file errors are meant to be collected and
// reported at the end of a run without aborting it. Callers distinguish
// the two with errors.As, never by comparing strings.
package herrors

import "fmt"

// DbOpenFailed is returned when a hash database cannot be opened, including
// when its advisory lock is already held by another process.
type DbOpenFailed struct {
	Path string
	Err  error
}

func (e *DbOpenFailed) Error() string {
	return fmt.Sprintf("open database %s: %s", e.Path, e.Err)
}

func (e *DbOpenFailed) Unwrap() error { return e.Err }

// DbSchemaMismatch is returned when a database's schema version is not one
// this build of the tool understands.
type DbSchemaMismatch struct {
	Path        string
	Found, Want int
}

func (e *DbSchemaMismatch) Error() string {
	return fmt.Sprintf("%s: schema version %d, expected %d", e.Path, e.Found, e.Want)
}

// HashKindMismatch is returned when a database was created with a different
// hasher identifier than the one currently selected.
type HashKindMismatch struct {
	Path        string
	Found, Want string
}

func (e *HashKindMismatch) Error() string {
	return fmt.Sprintf("%s: hasher %q, expected %q", e.Path, e.Found, e.Want)
}

// DbCorrupt is returned when the database file fails an internal consistency
// check (unreadable rows, wrong column types, foreign key violations).
type DbCorrupt struct {
	Path string
	Err  error
}

func (e *DbCorrupt) Error() string { return fmt.Sprintf("%s: corrupt database: %s", e.Path, e.Err) }
func (e *DbCorrupt) Unwrap() error { return e.Err }

// FileUnreadable marks a per-file error that causes the file to be skipped,
// not the command to abort.
type FileUnreadable struct {
	Path string
	Err  error
}

func (e *FileUnreadable) Error() string { return fmt.Sprintf("%s: unreadable: %s", e.Path, e.Err) }
func (e *FileUnreadable) Unwrap() error { return e.Err }

// DirInaccessible marks a subtree that was skipped because its directory
// entry could not be listed.
type DirInaccessible struct {
	Path string
	Err  error
}

func (e *DirInaccessible) Error() string {
	return fmt.Sprintf("%s: inaccessible directory: %s", e.Path, e.Err)
}
func (e *DirInaccessible) Unwrap() error { return e.Err }

// HasherExecFailed is returned when an external hasher process could not be
// started or exited non-zero.
type HasherExecFailed struct {
	Path string
	Err  error
}

func (e *HasherExecFailed) Error() string {
	return fmt.Sprintf("%s: external hasher failed: %s", e.Path, e.Err)
}
func (e *HasherExecFailed) Unwrap() error { return e.Err }

// HasherBadOutput is returned when an external hasher's stdout did not parse
// as a decimal unsigned integer.
type HasherBadOutput struct {
	Path   string
	Output string
}

func (e *HasherBadOutput) Error() string {
	return fmt.Sprintf("%s: bad external hasher output %q", e.Path, e.Output)
}

// TargetPathTypeConflict is returned when a plan would create a directory at
// a relative path already occupied by a non-directory entry, or when two
// source paths collide under case-folding on the target filesystem.
type TargetPathTypeConflict struct {
	Path string
}

func (e *TargetPathTypeConflict) Error() string {
	return fmt.Sprintf("%s: path type conflict", e.Path)
}

// TargetRenameFailed, TargetLinkFailed and TargetUnlinkFailed wrap the
// corresponding OS-level failure for a single plan step.
type TargetRenameFailed struct {
	From, To string
	Err      error
}

func (e *TargetRenameFailed) Error() string {
	return fmt.Sprintf("rename %s -> %s: %s", e.From, e.To, e.Err)
}
func (e *TargetRenameFailed) Unwrap() error { return e.Err }

type TargetLinkFailed struct {
	From, To string
	Err      error
}

func (e *TargetLinkFailed) Error() string {
	return fmt.Sprintf("link %s -> %s: %s", e.From, e.To, e.Err)
}
func (e *TargetLinkFailed) Unwrap() error { return e.Err }

type TargetUnlinkFailed struct {
	Path string
	Err  error
}

func (e *TargetUnlinkFailed) Error() string { return fmt.Sprintf("unlink %s: %s", e.Path, e.Err) }
func (e *TargetUnlinkFailed) Unwrap() error { return e.Err }

// PartialPlanFailure aggregates a mid-plan failure together with the steps
// that had already completed and the ones that never ran.
type PartialPlanFailure struct {
	Completed, Remaining int
	Err                  error
}

func (e *PartialPlanFailure) Error() string {
	return fmt.Sprintf("plan failed after %d/%d steps: %s", e.Completed, e.Completed+e.Remaining, e.Err)
}
func (e *PartialPlanFailure) Unwrap() error { return e.Err }

// OperationCancelled is returned when a command stops early because its
// cooperative stop flag was set.
type OperationCancelled struct{}

func (e *OperationCancelled) Error() string { return "operation cancelled" }
