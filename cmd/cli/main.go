// Package main is the entry point for the move-quote CLI.
package main

import (
	"os"

	"move-quote/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
