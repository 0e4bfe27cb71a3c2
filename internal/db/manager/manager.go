package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/omopkit/omopload/pkg/omopload"
)

const (
	queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	querySchemaExists   = "SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)"

	queryTerminateConnections = `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`
)

// Manager implements database and schema lifecycle operations using the
// DBConnection abstraction.
// Stateless and safe for concurrent use; thread safety depends on the injected DBConnection.
type Manager struct{}

// New creates a new DatabaseManager instance.
func New() omopload.DatabaseManager {
	return &Manager{}
}

// Exists checks if a database exists.
func (m *Manager) Exists(ctx context.Context, conn omopload.DBConnection, dbName string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create creates a new database.
func (m *Manager) Create(ctx context.Context, conn omopload.DBConnection, dbName string) error {
	// CREATE DATABASE cannot run inside a transaction, so it needs a
	// dedicated connection rather than whatever the pool hands Exec.
	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	_, err = pooledConn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// Drop drops the specified database.
func (m *Manager) Drop(ctx context.Context, conn omopload.DBConnection, dbName string) error {
	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	query := fmt.Sprintf("DROP DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	_, err = pooledConn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to drop database %q: %w", dbName, err)
	}
	return nil
}

// TerminateConnections terminates all connections to the specified database.
func (m *Manager) TerminateConnections(ctx context.Context, conn omopload.DBConnection, dbName string) error {
	_, err := conn.Exec(ctx, queryTerminateConnections, dbName)
	if err != nil {
		return fmt.Errorf("failed to terminate connections to database %q: %w", dbName, err)
	}
	return nil
}

// SchemaExists checks if a schema exists in the connected database.
func (m *Manager) SchemaExists(ctx context.Context, conn omopload.DBConnection, schemaName string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, querySchemaExists, schemaName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check schema existence: %w", err)
	}
	return exists, nil
}

// CreateSchema creates a schema in the connected database.
func (m *Manager) CreateSchema(ctx context.Context, conn omopload.DBConnection, schemaName string) error {
	query := fmt.Sprintf("CREATE SCHEMA %s", pgx.Identifier{schemaName}.Sanitize())
	_, err := conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema %q: %w", schemaName, err)
	}
	return nil
}

// DropSchema drops a schema and everything in it from the connected database.
// CASCADE is deliberate: the overwrite workflow recreates the namespace from
// the DDL template, so FK constraints between CDM tables must not block the drop.
func (m *Manager) DropSchema(ctx context.Context, conn omopload.DBConnection, schemaName string) error {
	query := fmt.Sprintf("DROP SCHEMA %s CASCADE", pgx.Identifier{schemaName}.Sanitize())
	_, err := conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to drop schema %q: %w", schemaName, err)
	}
	return nil
}

// Verify Manager implements the DatabaseManager interface at compile time
var _ omopload.DatabaseManager = (*Manager)(nil)
