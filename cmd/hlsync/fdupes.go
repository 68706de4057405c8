package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
	"github.com/relinksys/hlsync/internal/setengine"
)

func init() {
	registerCommand("fdupes", cmdFdupes)
}

// cmdFdupes reports groups of two or more files sharing content across
// one or more trees, grounded on original_source/lnsync_pkg/fdupes.py.
func cmdFdupes(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("fdupes", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() == 0 {
		logger.Error("fdupes: at least one location is required")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("fdupes: %s", err)
		return ExitUsage
	}

	locs, err := openLocations(cfg, fs.Args(), f)
	if err != nil {
		logger.Error("fdupes: %s", err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)

	stop := newStopFlag()
	for _, loc := range locs {
		if _, err := fillHashes(cfg, loc, f, false, stop); err != nil {
			logger.Error("fdupes: %s", err)
			return exitCodeForError(err)
		}
	}

	opts := setengine.Options{MinSize: tf.minSize, MaxSize: tf.maxSize, SizeOnly: tf.sizeOnly, HardLinks: tf.hardLinks}
	groups := setengine.Fdupes(viewsOf(locs), opts)
	if len(groups) == 0 {
		logger.Info("fdupes: no duplicates found")
		return ExitNoResults
	}
	printGroups(groups)
	return ExitSuccess
}

func printGroups(groups []setengine.Group) {
	for _, g := range groups {
		fmt.Println("---")
		for _, perTree := range g.PerTree {
			for _, line := range setengine.RenderGroup(perTree, setengine.ModePath) {
				fmt.Println(line)
			}
		}
	}
}
