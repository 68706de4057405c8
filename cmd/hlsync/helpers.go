package main

import (
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/filter"
	"github.com/relinksys/hlsync/internal/hashing"
	"github.com/relinksys/hlsync/internal/logger"
	"github.com/relinksys/hlsync/internal/pipeline"
	"github.com/relinksys/hlsync/internal/treeview"
)

// newStopFlag arms a cooperative stop flag that the hashing pipeline polls
// between files, set as soon as the process receives an interrupt.
func newStopFlag() *atomic.Bool {
	stop := &atomic.Bool{}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		logger.Warn("interrupted, finishing in-flight files before stopping")
		stop.Store(true)
	}()
	return stop
}

// openLocations resolves every positional argument to a location, closing
// whatever was already opened if a later one fails.
func openLocations(cfg config.Config, paths []string, f *filter.Stack) ([]*location, error) {
	locs := make([]*location, 0, len(paths))
	for _, p := range paths {
		loc, err := openLocation(cfg, p, f)
		if err != nil {
			closeLocations(locs)
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func closeLocations(locs []*location) {
	for _, l := range locs {
		if err := l.Close(); err != nil {
			logger.Warn("closing database: %s", err)
		}
	}
}

// fillHashes runs the hashing pipeline over one location so every entry
// has a current hash before a match, set, or compare query consumes it.
// Offline views are never touched: their hashes were committed whenever
// they were online (mkoffline carries over whatever update last wrote).
func fillHashes(cfg config.Config, loc *location, f *filter.Stack, force bool, stop *atomic.Bool) (pipeline.Stats, error) {
	if loc.view.IsOffline() {
		return pipeline.Stats{}, nil
	}
	hasher, err := hashing.ByID(cfg.HasherID)
	if err != nil {
		return pipeline.Stats{}, err
	}
	stats := pipeline.Run(loc.view, loc.db, hasher, pipeline.Options{
		Workers: cfg.Workers,
		MaxSize: cfg.MaxSize,
		Force:   force,
		Filter:  f,
	}, stop)
	return stats, nil
}

// viewsOf projects a slice of locations down to their tree views, the
// shape every setengine query takes.
func viewsOf(locs []*location) []*treeview.View {
	views := make([]*treeview.View, len(locs))
	for i, l := range locs {
		views[i] = l.view
	}
	return views
}
