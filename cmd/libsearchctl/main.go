// Package main provides the entry point for libsearchctl.
package main

import (
	"os"

	"github.com/libarea/search/cmd/libsearchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
