// Package main is the entry point for the vibekit CLI tool.
package main

import (
	"os"

	"github.com/msr-creativetech/vibekit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
