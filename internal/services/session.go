package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/omopkit/omopload/pkg/omopload"
)

// SessionManager handles load session initialization: staging scan, target
// database connection, and acquisition of the single session connection all
// later stages share.
//
// SessionManager is thread-safe for concurrent use as long as the injected
// dependencies (connectorFactory, scanner, logger) are also thread-safe.
type SessionManager struct {
	connectorFactory func(*omopload.ConnectionConfig) (omopload.Connector, error)
	scanner          omopload.StagingScanner
	logger           omopload.Logger
}

// Compile-time interface check
var _ omopload.SessionPreparer = (*SessionManager)(nil)

// NewSessionManager creates a new SessionManager with all dependencies injected.
//
// Panics if any dependency is nil. This is intentional fail-fast behavior
// to prevent cryptic nil pointer dereferences later. Panics indicate
// programmer error (incorrect dependency injection setup).
func NewSessionManager(
	connectorFactory func(*omopload.ConnectionConfig) (omopload.Connector, error),
	scanner omopload.StagingScanner,
	logger omopload.Logger,
) *SessionManager {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &SessionManager{
		connectorFactory: connectorFactory,
		scanner:          scanner,
		logger:           logger,
	}
}

// PrepareSession scans the staging directory, connects to the target
// database, and acquires the session connection.
//
// The single acquired connection is deliberate: session_replication_role set
// during a COPY affects only that backend, so schema apply, load, and
// validation must all run on the same connection.
//
// The caller is responsible for closing the session: defer session.Close().
func (sm *SessionManager) PrepareSession(
	ctx context.Context,
	connConfig *omopload.ConnectionConfig,
	stagingPath string,
	datasets []string,
	verbose bool,
) (*omopload.Session, error) {
	scanResult, err := sm.scanStaging(stagingPath, datasets, verbose)
	if err != nil {
		return nil, fmt.Errorf("staging scan failed: %w", err)
	}

	pool, err := sm.connectToDatabase(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Acquire a single connection for the entire session
	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	return omopload.NewSession(pool, conn, scanResult), nil
}

// scanStaging resolves the staging directory into per-table load inputs.
func (sm *SessionManager) scanStaging(stagingPath string, datasets []string, verbose bool) (omopload.ScanResult, error) {
	sm.logger.Verbose("Scanning staging directory %s...", stagingPath)

	scanResult, err := sm.scanner.ScanStaging(stagingPath, datasets)
	if err != nil {
		return omopload.ScanResult{}, err
	}

	sm.logger.Verbose("Resolved %d file(s) across %d table(s)", scanResult.FileCount(), len(scanResult.Sources))

	if verbose {
		tables := make([]string, 0, len(scanResult.Sources))
		for table := range scanResult.Sources {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			src := scanResult.Sources[table]
			for _, file := range src.Files {
				sm.logger.Verbose("  %s <- %s (%s, %d bytes)", table, file.Path, file.Delimiter, file.SizeBytes)
			}
			for _, skipped := range src.SkippedCompressed {
				sm.logger.Verbose("  %s: skipping compressed %s", table, skipped)
			}
		}
	}

	return scanResult, nil
}

// connectToDatabase establishes a connection pool to the target database.
func (sm *SessionManager) connectToDatabase(
	ctx context.Context,
	connConfig *omopload.ConnectionConfig,
) (*pgxpool.Pool, error) {
	sm.logger.Verbose("Connecting to database '%s'", connConfig.Database)

	connector, err := sm.connectorFactory(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %q: %w", connConfig.Database, err)
	}

	return pool, nil
}
