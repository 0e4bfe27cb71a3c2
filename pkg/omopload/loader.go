package omopload

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadOutcome classifies what happened to one table or file during the load.
type LoadOutcome int

const (
	LoadOutcomeLoaded         LoadOutcome = iota // rows streamed successfully
	LoadOutcomeSkippedMissing                    // no staged file for the table
	LoadOutcomeFailed                            // COPY rejected the file
)

// String returns a human-readable string representation of the LoadOutcome.
func (o LoadOutcome) String() string {
	switch o {
	case LoadOutcomeLoaded:
		return "loaded"
	case LoadOutcomeSkippedMissing:
		return "skipped (missing)"
	case LoadOutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileLoadResult records the outcome of loading one staged file, or the
// absence of any file for a table.
type FileLoadResult struct {
	Table    string
	Path     string // empty when the table had no staged file
	Outcome  LoadOutcome
	Rows     int64
	Duration time.Duration
	Error    string // COPY error text, empty unless Outcome is LoadOutcomeFailed
}

// LoadReport accumulates per-file results and running tallies for a load run.
type LoadReport struct {
	Results []FileLoadResult

	TablesAttempted int

	// TablesMissing counts tables the scan found no input for. It is
	// incremented once per table by the loader.
	TablesMissing int
	FilesLoaded   int
	FilesFailed   int
	RowsLoaded    int64

	// CompressedSkipped counts still-compressed files excluded from loading
	CompressedSkipped int
}

// AddFile records one result and updates the file-level tallies.
// TablesMissing is a per-table count maintained by the loader, not here: a
// single chunk that vanishes between scan and load is a skipped file, not a
// table without input.
func (r *LoadReport) AddFile(res FileLoadResult) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case LoadOutcomeLoaded:
		r.FilesLoaded++
		r.RowsLoaded += res.Rows
	case LoadOutcomeFailed:
		r.FilesFailed++
	}
}

// BulkLoader streams staged files into their tables over a single session
// connection. Tables are processed in dependency order; a file that COPY
// rejects is recorded and the load moves on to the next file.
type BulkLoader interface {
	LoadTables(ctx context.Context, conn *pgxpool.Conn, schemaName string, scan ScanResult) (*LoadReport, error)
}
