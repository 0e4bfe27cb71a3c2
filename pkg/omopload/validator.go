package omopload

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DialectFinding is one foreign-dialect keyword located in a DDL source file.
type DialectFinding struct {
	// Keyword is the offending word as written, e.g. "SORTKEY"
	Keyword string

	// File and Line locate the keyword in the original asset
	File string
	Line int
}

// ColumnCheck is one column type spot-check against the live catalog.
type ColumnCheck struct {
	Table    string
	Column   string
	Expected string // information_schema data_type, e.g. "integer"
	Actual   string
	OK       bool
}

// ValidationReport is the structured outcome of the post-load checks.
// Passed is the run verdict; everything else is evidence.
type ValidationReport struct {
	RunID      uuid.UUID
	Schema     string
	StartedAt  time.Time
	FinishedAt time.Time

	// SchemaChecksum is the raw checksum of the applied DDL assets
	SchemaChecksum string

	// Table existence
	ExpectedTables int
	TableCount     int
	MissingTables  []string

	// Constraint counts
	PrimaryKeyCount int
	ForeignKeyCount int

	// MissingPrimaryKeys lists spot-checked tables with no primary key
	MissingPrimaryKeys []string

	// Dialect cleanliness over the raw DDL sources
	DialectFindings []DialectFinding

	// Column type spot-checks
	ColumnChecks []ColumnCheck

	// DataTypeCounts tallies columns per information_schema data_type for
	// the conventions worth watching ("character varying", "bigint")
	DataTypeCounts map[string]int

	// Row counts for the key tables, plus which of them are empty
	RowCounts   map[string]int64
	EmptyTables []string

	// DataLoaded is informational: both concept and person hold rows.
	// An empty-but-valid database still passes.
	DataLoaded bool

	// Passed is the verdict: every expected table exists and the DDL sources
	// are free of foreign-dialect keywords.
	Passed bool
}

// Finalize computes the derived fields from the collected evidence.
func (r *ValidationReport) Finalize() {
	r.DataLoaded = r.RowCounts["concept"] > 0 && r.RowCounts["person"] > 0
	r.Passed = len(r.MissingTables) == 0 && len(r.DialectFindings) == 0
}

// Validator runs the post-load checks against the live database and the
// applied DDL sources.
type Validator interface {
	Validate(ctx context.Context, conn *pgxpool.Conn, schemaName string, applied *AppliedSchema) (*ValidationReport, error)
}
