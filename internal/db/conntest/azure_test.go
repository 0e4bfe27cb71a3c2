//go:build azure

package conntest

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omopkit/omopload/internal/db"
	"github.com/omopkit/omopload/pkg/omopload"
)

func requireAzureEnv(t *testing.T) (host, user, database string) {
	t.Helper()
	host = os.Getenv("OMOPLOAD_AZURE_TEST_HOST")
	user = os.Getenv("OMOPLOAD_AZURE_TEST_USER")
	database = os.Getenv("OMOPLOAD_AZURE_TEST_DB")
	if host == "" || user == "" || database == "" {
		t.Skip("Azure test env vars not set (OMOPLOAD_AZURE_TEST_HOST, OMOPLOAD_AZURE_TEST_USER, OMOPLOAD_AZURE_TEST_DB)")
	}
	return
}

func TestAzure_ServicePrincipal(t *testing.T) {
	host, user, database := requireAzureEnv(t)

	if os.Getenv("AZURE_TENANT_ID") == "" || os.Getenv("AZURE_CLIENT_ID") == "" || os.Getenv("AZURE_CLIENT_SECRET") == "" {
		t.Skip("Azure Service Principal env vars not set")
	}

	config := &omopload.ConnectionConfig{
		Host:              host,
		Port:              5432,
		Username:          user,
		Database:          database,
		SSLMode:           "require",
		AuthMethod:        omopload.AuthMethodAzureEntraID,
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
	}

	connector, err := db.NewConnector(config)
	require.NoError(t, err)

	pool, err := connector.Connect(context.Background())
	require.NoError(t, err)
	defer pool.Close()

	var version string
	err = pool.QueryRow(context.Background(), "SELECT version()").Scan(&version)
	require.NoError(t, err)
	assert.Contains(t, version, "PostgreSQL")
}

func TestAzure_ServicePrincipal_FullRun(t *testing.T) {
	host, user, _ := requireAzureEnv(t)

	if os.Getenv("AZURE_TENANT_ID") == "" || os.Getenv("AZURE_CLIENT_ID") == "" || os.Getenv("AZURE_CLIENT_SECRET") == "" {
		t.Skip("Azure Service Principal env vars not set")
	}

	config := &omopload.ConnectionConfig{
		Host:              host,
		Port:              5432,
		Username:          user,
		Database:          "postgres",
		SSLMode:           "require",
		AuthMethod:        omopload.AuthMethodAzureEntraID,
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
	}

	connStr := db.BuildConnectionString(config)

	runConfig := makeRunConfig(t, connStr, "omopload_azure_run_test")
	runConfig.AuthMethod = omopload.AuthMethodAzureEntraID
	runConfig.AzureTenantID = os.Getenv("AZURE_TENANT_ID")
	runConfig.AzureClientID = os.Getenv("AZURE_CLIENT_ID")
	runConfig.AzureClientSecret = os.Getenv("AZURE_CLIENT_SECRET")

	runner := newTestRunner(t)
	err := runner.Run(context.Background(), runConfig)
	require.NoError(t, err)

	t.Cleanup(func() {
		cleanupDB(t, connStr, runConfig.DatabaseName)
	})
}

func TestAzure_ManagedIdentity(t *testing.T) {
	if os.Getenv("OMOPLOAD_AZURE_MANAGED_IDENTITY") != "true" {
		t.Skip("OMOPLOAD_AZURE_MANAGED_IDENTITY not set to true")
	}

	host, user, database := requireAzureEnv(t)

	config := &omopload.ConnectionConfig{
		Host:       host,
		Port:       5432,
		Username:   user,
		Database:   database,
		SSLMode:    "require",
		AuthMethod: omopload.AuthMethodAzureEntraID,
	}

	connector, err := db.NewConnector(config)
	require.NoError(t, err)

	pool, err := connector.Connect(context.Background())
	require.NoError(t, err)
	defer pool.Close()

	var version string
	err = pool.QueryRow(context.Background(), "SELECT version()").Scan(&version)
	require.NoError(t, err)
	assert.Contains(t, version, "PostgreSQL")
}
