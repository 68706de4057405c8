package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
	"github.com/relinksys/hlsync/internal/match"
	"github.com/relinksys/hlsync/internal/plan"
)

func init() {
	registerCommand("sync", cmdSync)
	registerCommand("rsync", cmdRsync)
	registerCommand("syncr", cmdSyncr)
}

// cmdSync reconciles a target tree to match a source tree by hard link:
// hash whatever is missing on each side, match target file-ids to source
// file-ids by content, build a collision-free plan, then execute it
// (or print it, under --dry-run).
func cmdSync(cfg config.Config, args []string) int {
	return runSync(cfg, args, "sync", false, false)
}

// cmdRsync is sync with source and target swapped ("reverse sync"),
// supplemented per original_source/lnsync_cmd_handlers.py.
func cmdRsync(cfg config.Config, args []string) int {
	return runSync(cfg, args, "rsync", true, false)
}

// cmdSyncr forces a rehash of both trees before syncing ("sync, recompute
// first"), supplemented per original_source/lnsync_cmd_handlers.py.
func cmdSyncr(cfg config.Config, args []string) int {
	return runSync(cfg, args, "syncr", false, true)
}

func runSync(cfg config.Config, args []string, name string, reverse bool, forceRehash bool) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() != 2 {
		logger.Error("%s: usage: %s <source> <target>", name, name)
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("%s: %s", name, err)
		return ExitUsage
	}

	sourceArg, targetArg := fs.Arg(0), fs.Arg(1)
	if reverse {
		sourceArg, targetArg = targetArg, sourceArg
	}

	locs, err := openLocations(cfg, []string{sourceArg, targetArg}, f)
	if err != nil {
		logger.Error("%s: %s", name, err)
		return exitCodeForError(err)
	}
	defer closeLocations(locs)
	sourceLoc, targetLoc := locs[0], locs[1]

	stop := newStopFlag()
	if _, err := fillHashes(cfg, sourceLoc, f, forceRehash, stop); err != nil {
		logger.Error("%s: %s", name, err)
		return exitCodeForError(err)
	}
	if _, err := fillHashes(cfg, targetLoc, f, forceRehash, stop); err != nil {
		logger.Error("%s: %s", name, err)
		return exitCodeForError(err)
	}

	m := match.Run(sourceLoc.view, targetLoc.view, match.Options{SizeOnly: tf.sizeOnly})
	steps, err := plan.Build(sourceLoc.view, targetLoc.view, m, plan.Options{CaseInsensitive: tf.caseInsens})
	if err != nil {
		logger.Error("%s: %s", name, err)
		return exitCodeForError(err)
	}

	if len(steps) == 0 {
		logger.Info("%s: target already matches source", name)
		return ExitSuccess
	}

	if tf.dryRun {
		for _, line := range plan.Render(steps) {
			fmt.Println(line)
		}
		return ExitSuccess
	}

	if err := plan.Execute(targetLoc.view.Root, steps); err != nil {
		logger.Error("%s: %s", name, err)
		return exitCodeForError(err)
	}
	logger.Info("%s: executed %d steps", name, len(steps))
	return ExitSuccess
}
