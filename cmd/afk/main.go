// Package main is the entry point for the afk CLI.
// afk runs an AI coding agent in a loop, one fresh iteration per task,
// until the task list is done or a session limit is reached.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tOgg1/afk/internal/cli"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Printed {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
