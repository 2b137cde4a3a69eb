// Package main is the entry point for the seiflow CLI.
package main

import (
	"os"

	"github.com/seiflow/seiflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
