// Package main provides the entry point for the ainav CLI.
package main

import (
	"os"

	"github.com/ainav/ainav/cmd/ainav/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
