// Package main is the entry point for the incidash CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/incidash/cmd/incidashctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
