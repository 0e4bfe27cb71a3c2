package cli

import (
	"fmt"
	"os"

	"github.com/omopkit/omopload/internal/config"
	"github.com/omopkit/omopload/internal/db"
	"github.com/omopkit/omopload/pkg/omopload"
)

// connectionStringFromEnv returns the first non-empty connection string from
// OMOPLOAD_CONNECTION_STRING or DATABASE_URL environment variables.
func connectionStringFromEnv() string {
	if s := os.Getenv("OMOPLOAD_CONNECTION_STRING"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

// hasEnvConnectionSource returns true if environment variables provide enough
// connection info to skip the interactive wizard.
func hasEnvConnectionSource() bool {
	if connectionStringFromEnv() != "" {
		return true
	}
	return os.Getenv("PGHOST") != "" && os.Getenv("PGDATABASE") != ""
}

// resolveConnection consolidates connection resolution logic for every command
// that talks to the database. It handles connection string flags, granular
// flags, Azure/AWS/Google flags, and environment variables.
//
// Returns:
//   - ConnectionConfig with all parameters resolved
//   - Maintenance database name (for CREATE DATABASE operations)
//   - Error if configuration is invalid or conflicting
func resolveConnection(
	connStringFlag string,
	granularFlags *db.GranularConnFlags,
	azureFlags *db.AzureFlags,
	awsFlags *db.AWSFlags,
	googleFlags *db.GoogleFlags,
	certFlags *db.CertFlags,
	projectConfig *config.ProjectConfig,
	verbose bool,
) (*omopload.ConnectionConfig, string, error) {
	connString := connStringFlag
	if connString == "" {
		connString = connectionStringFromEnv()
	}

	envVars := db.LoadFromEnvironment()

	connConfig, maintenanceDB, err := db.ResolveConnectionParams(
		connString,
		granularFlags,
		azureFlags,
		awsFlags,
		googleFlags,
		certFlags,
		envVars,
		projectConfig,
	)
	if err != nil {
		return nil, "", err
	}

	return connConfig, maintenanceDB, nil
}

// resolveTargetDatabase consolidates database precedence logic.
// The -d/--database flag always takes precedence over the connection string database.
//
// Parameters:
//   - flagDatabase: Database from -d/--database CLI flag (highest priority)
//   - connConfigDatabase: Database from parsed connection string
//   - verbose: Enable verbose logging
//
// Returns:
//   - Resolved target database name, falling back to the default ("omop")
func resolveTargetDatabase(
	flagDatabase string,
	connConfigDatabase string,
	verbose bool,
) string {
	targetDB := flagDatabase

	if targetDB != "" {
		// User explicitly provided -d flag, use it (overrides connection string)
		if verbose && connConfigDatabase != "" && targetDB != connConfigDatabase {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Using --database flag (%s) instead of connection string database (%s)\n",
				targetDB, connConfigDatabase)
		}
	} else {
		// No -d flag, use database from connection string
		targetDB = connConfigDatabase
	}

	if targetDB == "" {
		targetDB = omopload.DefaultDatabaseName
	}

	return targetDB
}

// determineMaintenanceDB determines the maintenance database for CREATE DATABASE operations.
// When the database comes from the connection string (not -d flag) and it's not 'postgres',
// we need to use 'postgres' as the maintenance DB for CREATE DATABASE operations.
//
// Parameters:
//   - flagDatabase: Database from -d flag (empty string if not provided)
//   - connStringDatabase: Database from connection string
//   - currentMaintenanceDB: Current maintenance DB from resolver
//
// Returns:
//   - Corrected maintenance database name
func determineMaintenanceDB(
	flagDatabase string,
	connStringDatabase string,
	currentMaintenanceDB string,
) string {
	// When database comes from connection string (not -d flag),
	// AND it's not 'postgres', we need to update maintenanceDB
	// to use 'postgres' for CREATE DATABASE operations
	if flagDatabase == "" && connStringDatabase != "" && connStringDatabase != omopload.DefaultManagementDB {
		return omopload.DefaultManagementDB
	}
	if currentMaintenanceDB == "" {
		return omopload.DefaultManagementDB
	}
	return currentMaintenanceDB
}
