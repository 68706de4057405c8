package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/hashing"
	"github.com/relinksys/hlsync/internal/logger"
)

func init() {
	registerCommand("check", cmdCheck)
}

// cmdCheck recomputes every selected file's hash regardless of (I2)
// freshness and compares it against whatever hash the database had
// before this run, the one operation permitted to ignore the freshness
// invariant since its whole purpose is catching silent bitrot the
// invariant would otherwise hide.
func cmdCheck(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() == 0 {
		logger.Error("check: at least one location is required")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("check: %s", err)
		return ExitUsage
	}

	locs, err := openLocations(cfg, fs.Args(), f)
	if err != nil {
		logger.Error("check: %s", err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)

	hasher, err := hashing.ByID(cfg.HasherID)
	if err != nil {
		logger.Error("check: %s", err)
		return ExitUsage
	}

	mismatches := 0
	for i, loc := range locs {
		if loc.view.IsOffline() {
			continue
		}
		for _, e := range loc.view.Entries() {
			relPath := e.MinPath()
			if f != nil && !f.Included(relPath, false) {
				continue
			}
			prior, had, err := loc.db.Lookup(e.ID)
			if err != nil {
				logger.Warn("check: %s: %s", relPath, err)
				continue
			}

			file, err := os.Open(loc.view.AbsPath(relPath))
			if err != nil {
				logger.Warn("check: %s: %s", relPath, err)
				continue
			}
			newHash, hashErr := hasher.Hash(file)
			stat, statErr := file.Stat()
			file.Close()
			if hashErr != nil || statErr != nil {
				logger.Warn("check: %s: unreadable", relPath)
				continue
			}

			if had && prior.HasHash && prior.Size == stat.Size() && prior.Hash != newHash {
				fmt.Printf("mismatch: %s: %s: stored %x, computed %x\n", fs.Args()[i], relPath, prior.Hash, newHash)
				mismatches++
				continue // never overwrite the stored hash with a mismatched one
			}
			if err := loc.db.CommitHash(e.ID, stat.Size(), stat.ModTime().Unix(), newHash); err != nil {
				logger.Warn("check: %s: %s", relPath, err)
			}
		}
	}

	if mismatches > 0 {
		logger.Warn("check: %d mismatches found", mismatches)
		return ExitIO
	}
	logger.Info("check: no mismatches found")
	return ExitSuccess
}
