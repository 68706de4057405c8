package main

import (
	"flag"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
	"github.com/relinksys/hlsync/internal/setengine"
	"github.com/relinksys/hlsync/internal/treeview"
)

func init() {
	registerCommand("onall", cmdOnall)
	registerCommand("onfirstonly", cmdOnfirstonly)
	registerCommand("onlastonly", cmdOnlastonly)
}

func cmdOnall(cfg config.Config, args []string) int {
	return runSetQuery(cfg, args, "onall", setengine.OnAll)
}

func cmdOnfirstonly(cfg config.Config, args []string) int {
	return runSetQuery(cfg, args, "onfirstonly", setengine.OnFirstOnly)
}

func cmdOnlastonly(cfg config.Config, args []string) int {
	return runSetQuery(cfg, args, "onlastonly", setengine.OnLastOnly)
}

// runSetQuery shares the open/hash/query/print shape across onall,
// onfirstonly and onlastonly; only the grouping predicate differs.
func runSetQuery(cfg config.Config, args []string, name string, query func([]*treeview.View, setengine.Options) []setengine.Group) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() < 2 {
		logger.Error("%s: at least two locations are required", name)
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("%s: %s", name, err)
		return ExitUsage
	}

	locs, err := openLocations(cfg, fs.Args(), f)
	if err != nil {
		logger.Error("%s: %s", name, err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)

	stop := newStopFlag()
	for _, loc := range locs {
		if _, err := fillHashes(cfg, loc, f, false, stop); err != nil {
			logger.Error("%s: %s", name, err)
			return exitCodeForError(err)
		}
	}

	opts := setengine.Options{MinSize: tf.minSize, MaxSize: tf.maxSize, SizeOnly: tf.sizeOnly}
	groups := query(viewsOf(locs), opts)
	if len(groups) == 0 {
		logger.Info("%s: no matching files", name)
		return ExitNoResults
	}
	printGroups(groups)
	return ExitSuccess
}
