// Package source acquires staging inputs from an S3-compatible object
// store.
//
// The fetch is idempotent by local presence: an object whose staging file
// already exists is skipped without a network transfer, so interrupted
// fetches resume where they stopped. Only the vocabulary directory and the
// configured dataset directories are mirrored.
package source
