package load

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omopkit/omopload/internal/cdm"
	"github.com/omopkit/omopload/pkg/omopload"
)

// Loader streams staged CSV files into CDM tables over the single session
// connection with COPY FROM STDIN.
type Loader struct {
	logger omopload.Logger
}

// NewLoader creates a bulk loader.
// Panics if logger is nil.
func NewLoader(logger omopload.Logger) *Loader {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Loader{logger: logger}
}

// Compile-time interface check
var _ omopload.BulkLoader = (*Loader)(nil)

// LoadTables walks every CDM table in dependency order and streams its
// staged files. Chunks are independent operations: one chunk failing does
// not stop the next, and a failed file is recorded in the report while the
// load moves on. The error return is reserved for conditions that poison
// the session itself, such as failing to restore the replication role.
func (l *Loader) LoadTables(ctx context.Context, conn *pgxpool.Conn, schemaName string, scan omopload.ScanResult) (*omopload.LoadReport, error) {
	report := &omopload.LoadReport{}

	order, err := cdm.LoadOrder()
	if err != nil {
		return nil, fmt.Errorf("deriving table load order: %w", err)
	}

	for _, table := range order {
		report.TablesAttempted++

		src, ok := scan.Source(table.Name)
		if !ok || len(src.Files) == 0 {
			l.logger.Verbose("No staged file for %s, skipping", table.Name)
			report.TablesMissing++
			report.AddFile(omopload.FileLoadResult{
				Table:   table.Name,
				Outcome: omopload.LoadOutcomeSkippedMissing,
			})
			report.CompressedSkipped += len(src.SkippedCompressed)
			continue
		}
		report.CompressedSkipped += len(src.SkippedCompressed)

		for _, file := range src.Files {
			result, err := l.loadFile(ctx, conn, schemaName, file, scan.Root)
			if err != nil {
				return report, err
			}
			report.AddFile(result)
		}
	}

	l.logger.Info("Load complete: %d files, %d rows, %d failed, %d tables without input",
		report.FilesLoaded, report.RowsLoaded, report.FilesFailed, report.TablesMissing)
	return report, nil
}

// loadFile streams one staged file. Referential integrity is suspended for
// the duration of this file only and restored before the next operation,
// whatever COPY did.
func (l *Loader) loadFile(ctx context.Context, conn *pgxpool.Conn, schemaName string, file omopload.StagedFile, root string) (omopload.FileLoadResult, error) {
	result := omopload.FileLoadResult{
		Table: file.Table,
		Path:  file.Path,
	}

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(file.Path)))
	if err != nil {
		if os.IsNotExist(err) {
			// The file vanished between scan and load. Same contract as a
			// table with no staged file: logged no-op.
			l.logger.Verbose("Staged file %s disappeared, skipping", file.Path)
			result.Outcome = omopload.LoadOutcomeSkippedMissing
			return result, nil
		}
		l.logger.Error("Cannot open %s: %v", file.Path, err)
		result.Outcome = omopload.LoadOutcomeFailed
		result.Error = err.Error()
		return result, nil
	}
	defer f.Close()

	if _, err := conn.Exec(ctx, "SET session_replication_role = replica"); err != nil {
		return result, fmt.Errorf("%w: suspending referential integrity: %w", omopload.ErrExecutionFailed, err)
	}

	start := time.Now()
	tag, copyErr := conn.Conn().PgConn().CopyFrom(ctx, f, copyStatement(schemaName, file))
	result.Duration = time.Since(start)

	if _, err := conn.Exec(ctx, "SET session_replication_role = DEFAULT"); err != nil {
		// The session is in an unknown state; nothing further can be trusted.
		return result, fmt.Errorf("%w: restoring referential integrity: %w", omopload.ErrExecutionFailed, err)
	}

	if copyErr != nil {
		l.logger.Error("COPY %s into %s failed: %v", file.Path, file.Table, copyErr)
		result.Outcome = omopload.LoadOutcomeFailed
		result.Error = copyErr.Error()
		return result, nil
	}

	result.Outcome = omopload.LoadOutcomeLoaded
	result.Rows = tag.RowsAffected()
	l.logger.Verbose("Loaded %s into %s: %d rows in %s", file.Path, file.Table, result.Rows, result.Duration)
	return result, nil
}

// copyStatement builds the COPY command for one staged file.
//
// Dataset exports are standard CSV: comma delimited, double-quote quoted
// with doubled-quote escaping, and a header row to discard. Vocabulary
// exports are tab delimited with no header and no quoting at all; the
// quote character is set to backspace, which cannot appear in the data, so
// literal double quotes pass through raw. Empty strings are NULL in both
// flavors.
func copyStatement(schemaName string, file omopload.StagedFile) string {
	target := pgx.Identifier{schemaName, file.Table}.Sanitize()
	if file.Delimiter == omopload.DelimiterTab {
		return fmt.Sprintf(
			`COPY %s FROM STDIN (FORMAT csv, HEADER false, DELIMITER E'\t', QUOTE E'\b', NULL '')`,
			target)
	}
	return fmt.Sprintf(
		`COPY %s FROM STDIN (FORMAT csv, HEADER %t, DELIMITER ',', QUOTE '"', ESCAPE '"', NULL '')`,
		target, file.Header)
}
