package omopload

// Logger defines the interface for logging operations.
type Logger interface {
	// Info logs progress messages that are always shown.
	Info(format string, args ...interface{})
	// Verbose logs detailed information when verbose mode is enabled.
	Verbose(format string, args ...interface{})
	// Error logs error messages.
	Error(format string, args ...interface{})
}
