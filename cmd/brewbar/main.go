// Package main is the entry point for the brewbar CLI.
package main

import (
	"os"

	"github.com/mrz1836/brewbar/internal/cli"
)

// Set by the linker at release time.
//
//nolint:gochecknoglobals // build metadata
var (
	version string
	commit  string
	date    string
)

func main() {
	if err := cli.Execute(cli.BuildInfo{Version: version, Commit: commit, Date: date}); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
