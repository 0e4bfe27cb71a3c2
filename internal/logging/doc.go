// Package logging provides concrete implementations of the omopload.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes timestamped messages to stderr with thread-safe output
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
