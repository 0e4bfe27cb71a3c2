// Package services composes the load stages into the full pipeline:
// source acquisition, decompression, provisioning, schema application,
// ordered bulk load, validation. Each stage is also callable on its own so
// CLI commands can execute subsets.
package services
