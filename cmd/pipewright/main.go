// Package main is the entry point for the pipewright service.
//
// pipewright is a proof-of-concept CI/CD service that chains automated
// agents over repository events: code review, build prediction, image
// build, cluster provisioning, deployment and monitoring.
//
// Commands: serve, run, version.
//
// For detailed usage information, run:
//
//	pipewright --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/pipewright/cmd/pipewright/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
