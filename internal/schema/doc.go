// Package schema holds the versioned OMOP CDM DDL and applies it to a
// target namespace.
//
// The DDL for each supported CDM version ships embedded in the binary as
// three assets applied in order: table definitions, primary keys, foreign
// key constraints. Every asset is a template over the @cdmDatabaseSchema
// placeholder; rendering is a pure function so it can be tested without a
// database. An external directory can override the embedded assets for
// schema experiments.
//
// The package also scans the raw DDL text for keywords belonging to other
// warehouse dialects (DISTKEY, SORTKEY, DISTSTYLE, ENCODE). Findings are
// recorded against the original asset and line and fail validation.
package schema
