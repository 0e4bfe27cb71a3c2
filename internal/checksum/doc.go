// Package checksum provides file content hashing with normalization support.
//
// The package implements a dual checksum strategy for DDL sources:
//
//   - Raw checksum: Hash of the exact file content (detects all changes)
//   - Normalized checksum: Hash after removing comments and normalizing whitespace
//     (formatting-independent content identity)
//
// # Normalization Strategy
//
// Normalization makes checksums resilient to formatting changes:
//  1. Convert content to lowercase
//  2. Remove SQL comments (single-line -- and multi-line /* */)
//  3. Collapse all whitespace sequences to single spaces
//  4. Trim leading/trailing whitespace
//
// The validation report carries both checksums for the applied schema, so a
// reformatted DDL file is distinguishable from a semantically changed one.
//
// # Example Usage
//
//	calculator := checksum.New()
//	rawChecksum := calculator.CalculateRaw(fileContent)
//	normalizedChecksum := calculator.CalculateNormalized(fileContent)
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
