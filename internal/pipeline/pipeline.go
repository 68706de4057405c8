// Package pipeline implements the concurrent hashing pipeline (component
// D): a bounded worker pool that fills a tree's hash database for every
// file-id missing or stale per the freshness invariant, committing results
// through a single writer goroutine.
package pipeline

import (
	"context"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/relinksys/hlsync/internal/filter"
	"github.com/relinksys/hlsync/internal/hashdb"
	"github.com/relinksys/hlsync/internal/hashing"
	"github.com/relinksys/hlsync/internal/herrors"
	"github.com/relinksys/hlsync/internal/logger"
	"github.com/relinksys/hlsync/internal/treeview"
)

// defaultByteBudget bounds how many bytes of file content the pipeline
// will have open for reading at once, independent of the worker count:
// a handful of huge files can still exhaust memory/IO bandwidth even
// under a small worker pool.
const defaultByteBudget = 256 << 20

// Options controls one pipeline run.
type Options struct {
	Workers    int           // worker goroutine count, default runtime.NumCPU()
	MaxSize    int64         // per-file size cap, 0 = unbounded; larger files are skipped
	Force      bool          // ignore (I2) freshness and rehash every selected file
	Filter     *filter.Stack // applied again here so a run can scope independently of the view
	ByteBudget int64         // in-flight read budget in bytes, 0 = defaultByteBudget
}

// Stats accumulates counters for a run.
type Stats struct {
	Hashed  uint64
	Skipped uint64
	Errors  uint64
}

type pending struct {
	path  string
	entry treeview.Entry
}

type result struct {
	entry treeview.Entry
	path  string
	hash  uint64
	size  int64
	mtime int64
	err   error
}

// Run hashes every file-id in v that is missing from the database or
// stale per (I2) (or every selected file-id when opts.Force is set, as
// the rehash and syncr verbs need), subject to opts.Filter and
// opts.MaxSize.
//
// stop is checked between files, never mid-file: setting it during a run
// discards in-flight results without committing them, leaving the DB and
// target tree in the "every committed hash is correct" state §5 requires.
func Run(v *treeview.View, db *hashdb.DB, hasher hashing.Hasher, opts Options, stop *atomic.Bool) Stats {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	byteBudget := opts.ByteBudget
	if byteBudget <= 0 {
		byteBudget = defaultByteBudget
	}

	var toHash []pending
	for _, e := range v.Entries() {
		if stop.Load() {
			break
		}
		if opts.MaxSize > 0 && e.Size > opts.MaxSize {
			continue
		}
		path := e.MinPath()
		if opts.Filter != nil && !opts.Filter.Included(path, false) {
			continue
		}
		if !opts.Force {
			fresh, err := v.StatFresh(e, path)
			if err == nil && e.HasHash && fresh {
				continue
			}
		}
		toHash = append(toHash, pending{path: path, entry: e})
	}

	var stats Stats
	concurrency := make(chan struct{}, workers)
	bytesInFlight := semaphore.NewWeighted(byteBudget)
	results := make(chan result, workers*2)

	wg := sync.WaitGroup{}
	go func() {
		for _, p := range toHash {
			if stop.Load() {
				break
			}
			weight := byteWeight(p.entry.Size, byteBudget)
			bytesInFlight.Acquire(context.Background(), weight)
			concurrency <- struct{}{}
			wg.Add(1)
			go func(p pending, weight int64) {
				defer func() {
					<-concurrency
					bytesInFlight.Release(weight)
					wg.Done()
				}()
				if stop.Load() {
					return
				}
				results <- hashOne(v, hasher, p)
			}(p, weight)
		}
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			atomic.AddUint64(&stats.Errors, 1)
			logger.Warn("%s", r.err)
			continue
		}
		if stop.Load() {
			atomic.AddUint64(&stats.Skipped, 1)
			continue
		}
		if err := db.CommitHash(r.entry.ID, r.size, r.mtime, r.hash); err != nil {
			atomic.AddUint64(&stats.Errors, 1)
			logger.Warn("%s", err)
			continue
		}
		v.SetHash(r.entry.ID, r.hash)
		atomic.AddUint64(&stats.Hashed, 1)
	}

	return stats
}

// byteWeight clamps a file's size to the semaphore's total capacity: a
// single file larger than the whole budget still gets to run, just
// alone, rather than blocking forever waiting for unavailable capacity.
func byteWeight(size, budget int64) int64 {
	if size <= 0 {
		return 1
	}
	if size > budget {
		return budget
	}
	return size
}

func hashOne(v *treeview.View, hasher hashing.Hasher, p pending) result {
	f, err := os.Open(v.AbsPath(p.path))
	if err != nil {
		return result{entry: p.entry, path: p.path, err: &herrors.FileUnreadable{Path: p.path, Err: err}}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return result{entry: p.entry, path: p.path, err: &herrors.FileUnreadable{Path: p.path, Err: err}}
	}
	h, err := hasher.Hash(f)
	if err != nil {
		// Hasher errors already carry their own typed kind (HasherExecFailed,
		// HasherBadOutput); any other error, such as a read failure in a
		// built-in hasher, gets wrapped as FileUnreadable here.
		switch err.(type) {
		case *herrors.HasherExecFailed, *herrors.HasherBadOutput:
			return result{entry: p.entry, path: p.path, err: err}
		default:
			return result{entry: p.entry, path: p.path, err: &herrors.FileUnreadable{Path: p.path, Err: err}}
		}
	}
	return result{
		entry: p.entry,
		path:  p.path,
		hash:  h,
		size:  info.Size(),
		mtime: info.ModTime().Unix(),
	}
}
