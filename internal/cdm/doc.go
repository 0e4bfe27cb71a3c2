// Package cdm declares the OMOP Common Data Model v5.3.1 table set and the
// dependency graph the loader derives its table order from.
//
// The registry is the single source of truth for:
//   - The expected table list the post-load existence check asserts against
//   - Which tables are vocabulary exports (tab-delimited, headerless staging
//     files named in upper case) versus dataset exports (comma-delimited,
//     header row, lower case)
//   - The prerequisite edges that order the bulk load
//
// Adding a table means declaring its name and prerequisites here; the load
// order is computed, never hand-maintained.
package cdm
