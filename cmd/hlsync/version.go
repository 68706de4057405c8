package main

import (
	"fmt"

	"github.com/relinksys/hlsync/internal/config"
)

// version is stamped at release time; every CLI in the pack this tool is
// grounded on carries a version verb (cmd_version.go).
const version = "0.1.0"

func init() {
	registerCommand("version", cmdVersion)
}

func cmdVersion(cfg config.Config, args []string) int {
	fmt.Println(version)
	return ExitSuccess
}
