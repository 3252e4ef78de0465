// Package main provides the serpwalk CLI, which runs human-paced search and
// browse sessions that try to reach a target site from search results.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/entrhq/serpwalk/pkg/session"
)

// exitInterrupted follows the shell convention for SIGINT.
const exitInterrupted = 130

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var perr *session.PersistenceError
	if errors.Is(err, session.ErrInterrupted) && !errors.As(err, &perr) {
		return exitInterrupted
	}
	return 1
}
