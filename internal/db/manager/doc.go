// Package manager provides database and schema management operations for PostgreSQL.
//
// The manager package offers high-level operations for provisioning:
//   - Checking database existence
//   - Creating new databases
//   - Dropping existing databases
//   - Terminating active connections
//   - Checking, creating, and dropping the CDM namespace (schema)
//
// All operations use pgx.Identifier.Sanitize() for safe SQL identifier quoting,
// preventing SQL injection attacks while handling edge cases like database names
// with spaces, quotes, or special characters.
//
// # Example Usage
//
//	mgr := manager.New()
//
//	// Ensure the target database exists
//	exists, err := mgr.Exists(ctx, conn, "omop")
//	if !exists {
//		err = mgr.Create(ctx, conn, "omop")
//	}
//
//	// Recreate the CDM namespace
//	err = mgr.DropSchema(ctx, conn, "cdm")
//	err = mgr.CreateSchema(ctx, conn, "cdm")
//
// # Thread Safety
//
// Manager is NOT safe for concurrent use. Create separate instances
// for concurrent operations.
package manager
