package main

import (
	"flag"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/fileid"
	"github.com/relinksys/hlsync/internal/logger"
)

func init() {
	registerCommand("cleandb", cmdCleandb)
}

// cmdCleandb drops every database row whose file-id no longer appears in
// the live tree, then compacts the file. Only meaningful for an online
// location: an offline database has no live tree to reconcile against.
func cmdCleandb(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("cleandb", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() != 1 {
		logger.Error("cleandb: exactly one directory location is required")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("cleandb: %s", err)
		return ExitUsage
	}

	loc, err := openLocation(cfg, fs.Arg(0), f)
	if err != nil {
		logger.Error("cleandb: %s", err)
		return exitCodeForError(err)
	}
	defer loc.Close()

	if loc.view.IsOffline() {
		logger.Error("cleandb: %s is an offline database, nothing to reconcile against", fs.Arg(0))
		return ExitUsage
	}

	keep := make(map[fileid.ID]bool)
	for _, e := range loc.view.Entries() {
		keep[e.ID] = true
	}

	removed, err := loc.db.Prune(keep)
	if err != nil {
		logger.Error("cleandb: %s", err)
		return exitCodeForError(err)
	}
	if err := loc.db.Compact(); err != nil {
		logger.Error("cleandb: %s", err)
		return exitCodeForError(err)
	}
	logger.Info("cleandb: removed %d stale entries", removed)
	return ExitSuccess
}
