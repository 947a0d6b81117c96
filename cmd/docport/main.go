// Package main provides the entry point for the docport CLI.
package main

import (
	"os"

	"github.com/jacnlabs/docport/cmd/docport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
