// Package main is the entry point for the Keyward CLI.
package main

import (
	"os"

	"github.com/memopark/keyward/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
