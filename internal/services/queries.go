package services

// SQL constants for orchestration-level operations. Everything table- or
// schema-specific lives with its stage (internal/load, internal/validate);
// only the server-level probes belong here.

const (
	// queryReadinessPing is the trivial statement the readiness wait polls
	// until the server answers or the attempt budget is exhausted.
	queryReadinessPing = `SELECT 1`
)
