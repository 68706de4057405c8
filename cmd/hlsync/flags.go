package main

import (
	"flag"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/filter"
)

// patternArg is one --include/--exclude occurrence, kept in the order the
// user gave them since filter.Stack is first-match-wins.
type patternArg struct {
	mode    filter.Mode
	pattern string
}

type patternFlag struct {
	mode  filter.Mode
	items *[]patternArg
}

func (p *patternFlag) String() string { return "" }

func (p *patternFlag) Set(v string) error {
	*p.items = append(*p.items, patternArg{mode: p.mode, pattern: v})
	return nil
}

// treeFlags bundles the per-invocation options every verb shares: the
// include/exclude stack (which the ambient Config does not hold), the
// hard-link and case-insensitivity switches, and overrides for the Config
// fields (size pruning, dry-run, hasher, database location, workers) that
// applyConfig folds back into a copy of Config.
type treeFlags struct {
	patterns       []patternArg
	maxSize        int64
	minSize        int64
	sizeOnly       bool
	dryRun         bool
	hardLinks      bool
	caseInsens     bool
	hasher         string
	dbPrefix       string
	dbRootDir      string
	dbLocation     string
	workers        int
}

// bindTreeFlags registers the shared per-invocation flags on fs, grounded
// on spec.md §6's "global options" list. Each verb calls this and then
// adds whatever flags are specific to it.
func bindTreeFlags(fs *flag.FlagSet, cfg config.Config) *treeFlags {
	tf := &treeFlags{
		hasher:    cfg.HasherID,
		dbPrefix:  cfg.DbPrefix,
		dbRootDir: cfg.DbRootDir,
		workers:   cfg.Workers,
		maxSize:   cfg.MaxSize,
		minSize:   cfg.MinSize,
		sizeOnly:  cfg.SizeOnly,
		dryRun:    cfg.DryRun,
	}
	fs.Var(&patternFlag{mode: filter.Include, items: &tf.patterns}, "include", "include pattern (repeatable, first match wins)")
	fs.Var(&patternFlag{mode: filter.Exclude, items: &tf.patterns}, "exclude", "exclude pattern (repeatable, first match wins)")
	fs.Int64Var(&tf.maxSize, "max-size", tf.maxSize, "skip files larger than this many bytes (0 = unbounded)")
	fs.Int64Var(&tf.minSize, "min-size", tf.minSize, "omit files smaller than this size from set queries")
	fs.BoolVar(&tf.sizeOnly, "size-only", tf.sizeOnly, "match/compare by size alone, skipping the hash")
	fs.BoolVar(&tf.dryRun, "dry-run", tf.dryRun, "print the plan without executing it")
	fs.BoolVar(&tf.hardLinks, "hard-links", tf.hardLinks, "count distinct paths to one file as repeats")
	fs.BoolVar(&tf.caseInsens, "case-insensitive", tf.caseInsens, "treat target paths as case-insensitive when planning")
	fs.StringVar(&tf.hasher, "hasher", tf.hasher, "hasher identifier (xxhash32, xxhash64, or external:<path>)")
	fs.StringVar(&tf.dbPrefix, "db-prefix", tf.dbPrefix, "basename prefix for a tree's hash database file")
	fs.StringVar(&tf.dbRootDir, "db-root-dir", tf.dbRootDir, "directory to hold the hash database instead of the tree root")
	fs.StringVar(&tf.dbLocation, "db-location", tf.dbLocation, "explicit hash database path, overriding db-prefix/db-root-dir")
	fs.IntVar(&tf.workers, "workers", tf.workers, "hashing pipeline worker count")
	return tf
}

// applyConfig folds the parsed flags back into a copy of cfg, the same
// value every location in this invocation will be opened with.
func (tf *treeFlags) applyConfig(cfg config.Config) config.Config {
	cfg.HasherID = tf.hasher
	cfg.DbPrefix = tf.dbPrefix
	cfg.DbRootDir = tf.dbRootDir
	cfg.DbLocation = tf.dbLocation
	cfg.Workers = tf.workers
	cfg.MaxSize = tf.maxSize
	cfg.MinSize = tf.minSize
	cfg.SizeOnly = tf.sizeOnly
	cfg.DryRun = tf.dryRun
	return cfg
}

func (tf *treeFlags) buildFilter() (*filter.Stack, error) {
	stack := &filter.Stack{}
	for _, p := range tf.patterns {
		if err := stack.Add(p.mode, p.pattern); err != nil {
			return nil, err
		}
	}
	return stack, nil
}
