// Package main provides the entry point for the esglens CLI.
package main

import (
	"os"

	"github.com/hyperjump/esglens/cmd/esglens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
