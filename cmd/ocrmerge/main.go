// Package main is the entry point for the ocrmerge CLI.
package main

import (
	"os"

	"github.com/jmylchreest/ocrmerge/cmd/ocrmerge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
