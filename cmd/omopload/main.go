package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/omopkit/omopload/internal/cli"
	"github.com/omopkit/omopload/pkg/omopload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(omopload.ExitFailure)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(omopload.ExitCodeForError(err))
	}
}
