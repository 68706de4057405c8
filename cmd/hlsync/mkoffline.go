package main

import (
	"flag"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
)

func init() {
	registerCommand("mkoffline", cmdMkoffline)
}

// cmdMkoffline snapshots a live tree's path structure into its hash
// database and stamps the header offline, so the database file alone can
// later stand in for the tree as a location argument.
func cmdMkoffline(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("mkoffline", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() != 1 {
		logger.Error("mkoffline: exactly one directory location is required")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("mkoffline: %s", err)
		return ExitUsage
	}

	loc, err := openLocation(cfg, fs.Arg(0), f)
	if err != nil {
		logger.Error("mkoffline: %s", err)
		return exitCodeForError(err)
	}
	defer loc.Close()

	if loc.view.IsOffline() {
		logger.Error("mkoffline: %s is already an offline database", fs.Arg(0))
		return ExitUsage
	}

	for _, e := range loc.view.Entries() {
		for _, p := range e.Paths {
			if err := loc.db.PutPath(e.ID, p); err != nil {
				logger.Error("mkoffline: %s", err)
				return exitCodeForError(err)
			}
		}
	}
	if err := loc.db.MarkOffline(); err != nil {
		logger.Error("mkoffline: %s", err)
		return exitCodeForError(err)
	}
	logger.Info("mkoffline: %d entries recorded", len(loc.view.Entries()))
	return ExitSuccess
}
