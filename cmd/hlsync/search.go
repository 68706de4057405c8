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
	registerCommand("search", cmdSearch)
}

// cmdSearch lists every file across one or more trees whose relative path
// matches any of a set of glob patterns. Read-only, never hashes.
func cmdSearch(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	var patterns stringList
	fs.Var(&patterns, "pattern", "glob pattern to search for (repeatable)")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() == 0 || len(patterns) == 0 {
		logger.Error("search: usage: search -pattern <glob> [-pattern <glob>...] <location>...")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("search: %s", err)
		return ExitUsage
	}

	locs, err := openLocations(cfg, fs.Args(), f)
	if err != nil {
		logger.Error("search: %s", err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)

	results, err := setengine.Search(viewsOf(locs), patterns)
	if err != nil {
		logger.Error("search: %s", err)
		return ExitUsage
	}
	if len(results) == 0 {
		logger.Info("search: no matches")
		return ExitNoResults
	}
	for _, r := range results {
		fmt.Printf("%s: %s\n", fs.Arg(r.TreeIndex), r.Path)
	}
	return ExitSuccess
}

// stringList implements flag.Value for a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return "" }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
