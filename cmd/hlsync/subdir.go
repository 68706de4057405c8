package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
)

func init() {
	registerCommand("subdir", cmdSubdir)
}

// cmdSubdir lists the entries of an existing tree restricted to one
// subdirectory, printing for each file its smallest path under that
// subdirectory. It walks the whole tree to build the listing and stores
// nothing for later commands, which are not scoped by it. Grounded on
// original_source/lnsync_pkg/lnsync_treeargs.py's subdir-scoped location
// argument.
func cmdSubdir(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("subdir", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tf := bindTreeFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if fs.NArg() != 2 {
		logger.Error("subdir: usage: subdir <location> <relative-subdir>")
		return ExitUsage
	}

	cfg = tf.applyConfig(cfg)
	f, err := tf.buildFilter()
	if err != nil {
		logger.Error("subdir: %s", err)
		return ExitUsage
	}

	loc, err := openLocation(cfg, fs.Arg(0), f)
	if err != nil {
		logger.Error("subdir: %s", err)
		return exitCodeForError(err)
	}
	defer loc.Close()

	prefix := strings.TrimSuffix(fs.Arg(1), "/") + "/"
	if fs.Arg(1) == "." || fs.Arg(1) == "" {
		prefix = ""
	}

	count := 0
	for _, e := range loc.view.Entries() {
		for _, p := range e.SortedPaths() {
			if prefix == "" || strings.HasPrefix(p, prefix) {
				fmt.Println(p)
				count++
				break
			}
		}
	}
	if count == 0 {
		logger.Info("subdir: no entries under %s", fs.Arg(1))
		return ExitNoResults
	}
	return ExitSuccess
}
