// Package logging provides concrete implementations of the omopload.Logger interface.
package logging

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// timestampFormat prefixes every line. Load runs span hours, so operators
// reading the log need wall-clock anchors per stage.
const timestampFormat = "2006-01-02 15:04:05"

// ConsoleLogger writes timestamped log messages to stderr.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	mu      sync.Mutex
}

// NewConsoleLogger creates a new ConsoleLogger.
// If verbose is true, Verbose() calls will produce output.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return &ConsoleLogger{
		verbose: verbose,
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("[VERBOSE] ", format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write("[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	stamp := time.Now().Format(timestampFormat)
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, stamp+" "+prefix+format+"\n", args...)
	} else {
		fmt.Fprint(os.Stderr, stamp+" "+prefix+format+"\n")
	}
}
