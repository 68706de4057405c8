package main

import (
	"flag"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
)

func init() {
	registerCommand("update", cmdUpdate)
}

// cmdUpdate hashes every file-id missing from a tree's database or stale
// per the freshness invariant, the only verb most workflows need to run
// on their own before a sync or a set query.
func cmdUpdate(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() == 0 {
		logger.Error("update: at least one location is required")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("update: %s", err)
		return ExitUsage
	}

	locs, err := openLocations(cfg, fs.Args(), f)
	if err != nil {
		logger.Error("update: %s", err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)

	stop := newStopFlag()
	for i, loc := range locs {
		stats, err := fillHashes(cfg, loc, f, false, stop)
		if err != nil {
			logger.Error("update: %s", err)
			return exitCodeForError(err)
		}
		logger.Info("%s: hashed %d, skipped %d, errors %d", fs.Args()[i], stats.Hashed, stats.Skipped, stats.Errors)
	}
	return ExitSuccess
}
