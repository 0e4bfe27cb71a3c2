//go:build conntest || azure

package conntest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omopkit/omopload/internal/services"
	omoptest "github.com/omopkit/omopload/internal/testing"
	"github.com/omopkit/omopload/pkg/omopload"
)

func newTestRunner(t *testing.T) *services.PipelineService {
	t.Helper()
	return omoptest.NewTestRunner(t)
}

// setupRunStaging creates a minimal staging tree: a vocab/ directory with no
// table files. The run provisions the database and applies the CDM schema;
// every table simply records a skipped load.
func setupRunStaging(t *testing.T, dir string) string {
	t.Helper()
	staging := filepath.Join(dir, "staging")
	if err := os.MkdirAll(filepath.Join(staging, "vocab"), 0755); err != nil {
		t.Fatalf("create staging: %v", err)
	}
	return staging
}

func cleanupDB(t *testing.T, connStr, dbName string) {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Logf("cleanup: failed to connect: %v", err)
		return
	}
	defer pool.Close()

	_, _ = pool.Exec(ctx,
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()", dbName)
	_, err = pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize())
	if err != nil {
		t.Logf("cleanup: failed to drop %s: %v", dbName, err)
	}
}

func makeRunConfig(t *testing.T, connStr, dbName string) omopload.RunConfig {
	t.Helper()
	return omopload.RunConfig{
		StagingPath:         setupRunStaging(t, t.TempDir()),
		DatabaseName:        dbName,
		SchemaName:          omopload.DefaultSchemaName,
		MaintenanceDatabase: "postgres",
		ConnectionString:    connStr,
		Overwrite:           true,
		Force:               true,
	}
}
