package main

import (
	"flag"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
)

func init() {
	registerCommand("rehash", cmdRehash)
}

// cmdRehash recomputes the hash of every selected file regardless of
// (I2) freshness, used after a hasher change or when mtimes are suspect.
func cmdRehash(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("rehash", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() == 0 {
		logger.Error("rehash: at least one location is required")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("rehash: %s", err)
		return ExitUsage
	}

	locs, err := openLocations(cfg, fs.Args(), f)
	if err != nil {
		logger.Error("rehash: %s", err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)

	stop := newStopFlag()
	for i, loc := range locs {
		stats, err := fillHashes(cfg, loc, f, true, stop)
		if err != nil {
			logger.Error("rehash: %s", err)
			return exitCodeForError(err)
		}
		logger.Info("%s: hashed %d, skipped %d, errors %d", fs.Args()[i], stats.Hashed, stats.Skipped, stats.Errors)
	}
	return ExitSuccess
}
