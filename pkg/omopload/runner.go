package omopload

import "context"

// Runner is the main interface for executing load runs.
// Implementations handle the full workflow: source acquisition, decompression,
// database provisioning, schema application, bulk loading, and validation,
// strictly in that order.
type Runner interface {
	// Run executes a load run using the provided configuration.
	// It returns an error if any stage fails, including a failed
	// validation verdict.
	Run(ctx context.Context, config RunConfig) error
}
