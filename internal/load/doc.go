// Package load streams staged CSV files into CDM tables with COPY.
//
// Tables are processed strictly in dependency order on a single session
// connection; each file is one COPY operation bracketed by suspending and
// restoring session_replication_role, so foreign keys between CDM tables
// never dictate load order within a file. Failures are per-file: a rejected
// chunk is recorded in the load report and the run continues.
package load
