// Command hlsync reconciles two local file trees by hard link, using
// content hashes to recognize moved and duplicated files instead of
// relying on matching paths.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/relinksys/hlsync/internal/config"
	"github.com/relinksys/hlsync/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	flags := flag.NewFlagSet("hlsync", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var configPath string
	var debug, trace, quiet bool
	flags.StringVar(&configPath, "config", "", "path to an INI configuration file")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.BoolVar(&trace, "trace", false, "enable trace logging")
	flags.BoolVar(&quiet, "quiet", false, "suppress progress output")

	if err := flags.Parse(argv); err != nil {
		return ExitUsage
	}

	logger.SetDebug(debug)
	logger.SetTrace(trace)
	logger.SetProgress(!quiet)

	args := flags.Args()
	if len(args) == 0 {
		usage(flags)
		return ExitUsage
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("loading configuration: %s", err)
		return ExitIO
	}

	name := args[0]
	cmd, ok := lookupCommand(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "hlsync: unknown command %q\n", name)
		usage(flags)
		return ExitUsage
	}

	return cmd(cfg, args[1:])
}

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: hlsync [global flags] <command> [flags] <location>...\n\n")
	fmt.Fprintf(os.Stderr, "commands: %s\n\n", strings.Join(commandNames(), ", "))
	fmt.Fprintf(os.Stderr, "global flags:\n")
	flags.PrintDefaults()
}
