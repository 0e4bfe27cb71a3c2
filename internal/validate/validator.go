package validate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omopkit/omopload/internal/cdm"
	"github.com/omopkit/omopload/internal/schema"
	"github.com/omopkit/omopload/pkg/omopload"
)

// querier is the slice of pgxpool.Conn the checks need. Narrowed for tests.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Validator runs the post-load checks against the live database and the
// applied DDL sources.
type Validator struct {
	logger omopload.Logger
}

// NewValidator creates a validator.
// Panics if logger is nil.
func NewValidator(logger omopload.Logger) *Validator {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Validator{logger: logger}
}

// Compile-time interface check
var _ omopload.Validator = (*Validator)(nil)

// Validate runs every check to completion and returns the assembled report.
// A check whose catalog query fails is logged and leaves its evidence empty;
// only context cancellation aborts the run.
func (v *Validator) Validate(ctx context.Context, conn *pgxpool.Conn, schemaName string, applied *omopload.AppliedSchema) (*omopload.ValidationReport, error) {
	return v.validate(ctx, conn, schemaName, applied)
}

func (v *Validator) validate(ctx context.Context, q querier, schemaName string, applied *omopload.AppliedSchema) (*omopload.ValidationReport, error) {
	report := &omopload.ValidationReport{
		RunID:     uuid.New(),
		Schema:    schemaName,
		StartedAt: time.Now(),
	}
	if applied != nil {
		report.SchemaChecksum = applied.ChecksumRaw
	}

	v.checkTables(ctx, q, schemaName, report)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	v.checkConstraints(ctx, q, schemaName, report)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	v.checkDialect(applied, report)
	v.checkColumnTypes(ctx, q, schemaName, report)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	v.checkRowCounts(ctx, q, schemaName, report)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.FinishedAt = time.Now()
	report.Finalize()

	if report.Passed {
		v.logger.Info("Validation passed: %d/%d tables, %d foreign keys, data loaded: %t",
			report.TableCount, report.ExpectedTables, report.ForeignKeyCount, report.DataLoaded)
	} else {
		v.logger.Error("Validation failed: %d missing tables, %d dialect findings",
			len(report.MissingTables), len(report.DialectFindings))
	}
	return report, nil
}

// checkTables compares the tables present in the namespace against the
// fixed CDM table list. Missing tables fail the run verdict.
func (v *Validator) checkTables(ctx context.Context, q querier, schemaName string, report *omopload.ValidationReport) {
	report.ExpectedTables = cdm.ExpectedTableCount()

	rows, err := q.Query(ctx, queryTablesInSchema, schemaName)
	if err != nil {
		v.logger.Error("Table existence check failed: %v", err)
		report.MissingTables = cdm.TableNames()
		return
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			v.logger.Error("Table existence check failed: %v", err)
			return
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		v.logger.Error("Table existence check failed: %v", err)
		return
	}

	for _, name := range cdm.TableNames() {
		if present[name] {
			report.TableCount++
		} else {
			report.MissingTables = append(report.MissingTables, name)
		}
	}
	sort.Strings(report.MissingTables)
}

// checkConstraints counts primary and foreign keys in the namespace and
// spot-checks that the core tables kept their primary keys. Reported only.
func (v *Validator) checkConstraints(ctx context.Context, q querier, schemaName string, report *omopload.ValidationReport) {
	if err := q.QueryRow(ctx, queryConstraintCount, schemaName, "PRIMARY KEY").Scan(&report.PrimaryKeyCount); err != nil {
		v.logger.Error("Primary key count failed: %v", err)
	}
	if err := q.QueryRow(ctx, queryConstraintCount, schemaName, "FOREIGN KEY").Scan(&report.ForeignKeyCount); err != nil {
		v.logger.Error("Foreign key count failed: %v", err)
	}

	for _, table := range cdm.PrimaryKeyCheckTables() {
		var exists bool
		if err := q.QueryRow(ctx, queryPrimaryKeyExists, schemaName, table).Scan(&exists); err != nil {
			v.logger.Error("Primary key check for %s failed: %v", table, err)
			continue
		}
		if !exists {
			report.MissingPrimaryKeys = append(report.MissingPrimaryKeys, table)
		}
	}
}

// checkDialect scans the raw DDL sources for foreign-dialect keywords.
// Any finding fails the run verdict.
func (v *Validator) checkDialect(applied *omopload.AppliedSchema, report *omopload.ValidationReport) {
	if applied == nil {
		return
	}
	report.DialectFindings = schema.ScanDialect(applied.Assets)
	for _, finding := range report.DialectFindings {
		v.logger.Error("Foreign dialect keyword %q at %s:%d", finding.Keyword, finding.File, finding.Line)
	}
}

// checkColumnTypes verifies a fixed set of load-bearing columns against the
// catalog and tallies the watched data type conventions. Reported only.
func (v *Validator) checkColumnTypes(ctx context.Context, q querier, schemaName string, report *omopload.ValidationReport) {
	for _, spot := range columnSpotChecks {
		check := omopload.ColumnCheck{
			Table:    spot.table,
			Column:   spot.column,
			Expected: spot.expected,
		}
		if err := q.QueryRow(ctx, queryColumnType, schemaName, spot.table, spot.column).Scan(&check.Actual); err != nil {
			v.logger.Error("Column type check for %s.%s failed: %v", spot.table, spot.column, err)
			continue
		}
		check.OK = check.Actual == check.Expected
		report.ColumnChecks = append(report.ColumnChecks, check)
	}

	report.DataTypeCounts = make(map[string]int, len(watchedDataTypes))
	for _, dataType := range watchedDataTypes {
		var count int
		if err := q.QueryRow(ctx, queryDataTypeCount, schemaName, dataType).Scan(&count); err != nil {
			v.logger.Error("Data type count for %q failed: %v", dataType, err)
			continue
		}
		report.DataTypeCounts[dataType] = count
	}
}

// checkRowCounts counts rows in the representative tables. Empty tables are
// a warning, not a failure: loading nothing into a valid schema still
// passes.
func (v *Validator) checkRowCounts(ctx context.Context, q querier, schemaName string, report *omopload.ValidationReport) {
	report.RowCounts = make(map[string]int64)

	for _, table := range cdm.KeyTables() {
		var count int64
		sql := fmt.Sprintf("SELECT count(*) FROM %s", pgx.Identifier{schemaName, table}.Sanitize())
		if err := q.QueryRow(ctx, sql).Scan(&count); err != nil {
			v.logger.Error("Row count for %s failed: %v", table, err)
			continue
		}
		report.RowCounts[table] = count
		if count == 0 {
			report.EmptyTables = append(report.EmptyTables, table)
			v.logger.Info("Warning: table %s is empty", table)
		}
	}
	sort.Strings(report.EmptyTables)
}
