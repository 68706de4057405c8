package main

import (
	"sort"

	"github.com/relinksys/hlsync/internal/config"
)

// commandFunc is one verb's entry point: cfg carries process-wide settings
// already loaded from the optional INI file and the global flags; args is
// whatever followed the verb on the command line, still unparsed.
type commandFunc func(cfg config.Config, args []string) int

var registry = map[string]commandFunc{}

// registerCommand wires one verb into the dispatch table, grounded on the
// teacher's registerCommand/init() pattern (cmd_checksum.go and its many
// siblings), simplified here since this tool has no agent/RPC layer for a
// subcommand to thread through.
func registerCommand(name string, fn commandFunc) {
	registry[name] = fn
}

func lookupCommand(name string) (commandFunc, bool) {
	fn, ok := registry[name]
	return fn, ok
}

func commandNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
