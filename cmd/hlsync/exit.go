package main

import (
	"errors"

	"github.com/relinksys/hlsync/internal/herrors"
)

// Exit codes, grounded on spec.md §6's distinguished failure classes.
const (
	ExitSuccess            = 0
	ExitUsage              = 1
	ExitIO                 = 2
	ExitSchemaMismatch     = 3
	ExitHashKindMismatch   = 4
	ExitPartialPlanFailure = 5
	ExitNoResults          = 6
)

// exitCodeForError classifies err into one of the codes above, falling
// back to ExitIO for anything not specifically distinguished.
func exitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var schemaErr *herrors.DbSchemaMismatch
	if errors.As(err, &schemaErr) {
		return ExitSchemaMismatch
	}
	var hashKindErr *herrors.HashKindMismatch
	if errors.As(err, &hashKindErr) {
		return ExitHashKindMismatch
	}
	var partialErr *herrors.PartialPlanFailure
	if errors.As(err, &partialErr) {
		return ExitPartialPlanFailure
	}
	return ExitIO
}
