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
	registerCommand("cmp", cmdCmp)
}

// cmdCmp reports, path by path, whether two trees agree.
func cmdCmp(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("cmp", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() != 2 {
		logger.Error("cmp: usage: cmp <a> <b>")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("cmp: %s", err)
		return ExitUsage
	}

	locs, err := openLocations(cfg, fs.Args(), f)
	if err != nil {
		logger.Error("cmp: %s", err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)

	stop := newStopFlag()
	for _, loc := range locs {
		if _, err := fillHashes(cfg, loc, f, false, stop); err != nil {
			logger.Error("cmp: %s", err)
			return exitCodeForError(err)
		}
	}

	results := setengine.Cmp(locs[0].view, locs[1].view, setengine.Options{
		MinSize:  tf.minSize,
		MaxSize:  tf.maxSize,
		SizeOnly: tf.sizeOnly,
	})

	different := 0
	for _, r := range results {
		switch r.Status {
		case setengine.CmpIdentical:
			continue
		case setengine.CmpDifferent:
			fmt.Printf("differ:      %s\n", r.Path)
		case setengine.CmpMissingInA:
			fmt.Printf("missing(a):  %s\n", r.Path)
		case setengine.CmpMissingInB:
			fmt.Printf("missing(b):  %s\n", r.Path)
		case setengine.CmpTypeMismatch:
			fmt.Printf("unresolved:  %s\n", r.Path)
		}
		different++
	}
	if different == 0 {
		logger.Info("cmp: no differences")
	}
	return ExitSuccess
}
