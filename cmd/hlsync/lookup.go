package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
)

func init() {
	registerCommand("lookup", cmdLookup)
}

// cmdLookup prints one relative path's size, hash (if known) and every
// other path aliasing the same file-id. Read-only: it never hashes or
// mutates anything.
func cmdLookup(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() != 2 {
		logger.Error("lookup: usage: lookup <location> <relative-path>")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("lookup: %s", err)
		return ExitUsage
	}

	loc, err := openLocation(cfg, fs.Arg(0), f)
	if err != nil {
		logger.Error("lookup: %s", err)
		return exitCodeForError(err)
	}
	defer loc.Close()

	e, ok := loc.view.ByPath(fs.Arg(1))
	if !ok {
		logger.Warn("lookup: %s not found", fs.Arg(1))
		return ExitNoResults
	}

	fmt.Printf("path:  %s\n", fs.Arg(1))
	fmt.Printf("size:  %d\n", e.Size)
	if e.HasHash {
		fmt.Printf("hash:  %x\n", e.Hash)
	} else {
		fmt.Printf("hash:  (unknown, run update first)\n")
	}
	for _, p := range e.SortedPaths() {
		if p != fs.Arg(1) {
			fmt.Printf("alias: %s\n", p)
		}
	}
	return ExitSuccess
}
