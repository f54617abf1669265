// cmd/steward/main.go
//
// Entry point for the steward CLI. All verbs live in the cmd package; this
// file only dispatches and sets the exit code.

package main

import (
	"os"

	"github.com/kingrea/steward/cmd/steward/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
