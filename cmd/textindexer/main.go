// Package main provides the entry point for the textindexer CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/textindexer/cmd/textindexer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
