package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/omopkit/omopload/internal/config"
	"github.com/omopkit/omopload/pkg/omopload"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-H, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (PostgreSQL standard)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Note: Database flag is excluded from this check because it can be used to override
// the database specified in a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AzureFlags represents Azure Entra ID CLI flags.
// These override the corresponding AZURE_* environment variables.
// Note: Client secret is NOT included as a CLI flag for security reasons.
// Use AZURE_CLIENT_SECRET environment variable instead.
type AzureFlags struct {
	Enabled  bool   // --azure
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

// IsEmpty returns true if no Azure flags were provided.
func (a *AzureFlags) IsEmpty() bool {
	return a == nil || (!a.Enabled && a.TenantID == "" && a.ClientID == "")
}

// AWSFlags represents AWS RDS IAM authentication CLI flags.
type AWSFlags struct {
	Enabled bool   // --aws-iam
	Region  string // Overrides AWS_REGION
}

// IsEmpty returns true if no AWS flags were provided.
func (a *AWSFlags) IsEmpty() bool {
	return a == nil || (!a.Enabled && a.Region == "")
}

// GoogleFlags represents Google Cloud SQL IAM authentication CLI flags.
type GoogleFlags struct {
	Enabled  bool   // --google
	Instance string // project:region:instance connection name
}

// IsEmpty returns true if no Google flags were provided.
func (g *GoogleFlags) IsEmpty() bool {
	return g == nil || g.Instance == ""
}

// CertFlags represents client certificate (mTLS) CLI flags.
type CertFlags struct {
	SSLCert     string
	SSLKey      string
	SSLRootCert string
}

// IsEmpty returns true if no certificate flags were provided.
func (c *CertFlags) IsEmpty() bool {
	return c == nil || (c.SSLCert == "" && c.SSLKey == "" && c.SSLRootCert == "")
}

// EnvVars represents PostgreSQL standard environment variables.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string // PostgreSQL server host
	PGPORT       string // PostgreSQL server port
	PGUSER       string // PostgreSQL username
	PGPASSWORD   string // PostgreSQL password (discouraged, use .pgpass instead)
	PGDATABASE   string // Default database name
	PGSSLMODE    string // SSL mode
	DATABASE_URL string // Full connection string (Heroku/Rails convention)

	// Azure Entra ID environment variables (Azure SDK standard names)
	AZURE_TENANT_ID     string // Azure AD tenant/directory ID
	AZURE_CLIENT_ID     string // Azure AD application/client ID
	AZURE_CLIENT_SECRET string // Azure AD client secret (for Service Principal auth)

	// AWS environment variables (AWS SDK standard names)
	AWS_REGION string // AWS region for RDS IAM token acquisition
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
// This follows standard PostgreSQL client behavior and cloud SDK conventions.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:              os.Getenv("PGHOST"),
		PGPORT:              os.Getenv("PGPORT"),
		PGUSER:              os.Getenv("PGUSER"),
		PGPASSWORD:          os.Getenv("PGPASSWORD"),
		PGDATABASE:          os.Getenv("PGDATABASE"),
		PGSSLMODE:           os.Getenv("PGSSLMODE"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
	}
}

// HasAzureCredentials returns true if Azure Entra ID environment variables are set.
func (e *EnvVars) HasAzureCredentials() bool {
	return e.AZURE_TENANT_ID != "" || e.AZURE_CLIENT_ID != ""
}

// ResolveConnectionParams resolves connection parameters using PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection) - if provided, parse and use directly
//  2. Granular flags (-H, -p, -U, -d) - if any provided, build config from flags
//  3. Environment variables (PGHOST, PGPORT, etc.) - fallback if no flags
//  4. DATABASE_URL environment variable - fallback if no granular params
//  5. omopload.yaml connection block
//  6. Defaults (localhost:5432, prefer SSL)
//
// Cloud authentication:
// Azure flags or AZURE_* environment variables switch the AuthMethod to
// AzureEntraID; AWS flags switch to AWSIAM; a Google instance switches to
// GoogleIAM; certificate flags switch to Certificate. CLI flags take
// precedence over environment variables. Requesting more than one cloud
// method at once is an error.
//
// Returns:
//   - ConnectionConfig with all parameters resolved
//   - Maintenance database name (for CREATE DATABASE operations)
//   - Error if configuration is invalid or conflicting
//
// Conflict Detection:
// Returns error if BOTH --connection flag AND granular flags are provided.
// This prevents ambiguity and ensures clear user intent.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	azureFlags *AzureFlags,
	awsFlags *AWSFlags,
	googleFlags *GoogleFlags,
	certFlags *CertFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*omopload.ConnectionConfig, string, error) {
	// Validate inputs
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	// Check for conflicts: connection string XOR granular flags
	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, "", fmt.Errorf(
			"cannot specify both --connection and granular flags (-H, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/postgres\"\n" +
				"  2. Granular flags: -H localhost -p 5432 -U myuser -d omop\n" +
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser",
		)
	}

	var cfg *omopload.ConnectionConfig
	var maintenanceDB string
	var err error

	// Path 1: Connection string provided via --connection flag
	if connStringFlag != "" {
		cfg, maintenanceDB, err = resolveFromConnectionString(connStringFlag, envVars)
	} else if granularFlags.IsEmpty() && envVars.DATABASE_URL != "" {
		// Path 2: DATABASE_URL environment variable (if no granular flags)
		cfg, maintenanceDB, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	} else {
		// Path 3: Granular flags + environment variables with precedence
		cfg, maintenanceDB, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}

	if err != nil {
		return nil, "", err
	}

	if err := applyAuth(cfg, azureFlags, awsFlags, googleFlags, certFlags, envVars, projectConfig); err != nil {
		return nil, "", err
	}

	return cfg, maintenanceDB, nil
}

// applyAuth sets the authentication method on the config based on flags,
// environment variables, and the project config, in that order of precedence.
func applyAuth(
	cfg *omopload.ConnectionConfig,
	azureFlags *AzureFlags,
	awsFlags *AWSFlags,
	googleFlags *GoogleFlags,
	certFlags *CertFlags,
	env *EnvVars,
	projectConfig *config.ProjectConfig,
) error {
	var requested []string
	if !azureFlags.IsEmpty() {
		requested = append(requested, "azure")
	}
	if !awsFlags.IsEmpty() {
		requested = append(requested, "aws-iam")
	}
	if !googleFlags.IsEmpty() {
		requested = append(requested, "google-iam")
	}
	if len(requested) > 1 {
		return fmt.Errorf("conflicting authentication methods requested: %v (choose one)", requested)
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	switch {
	case !azureFlags.IsEmpty():
		applyAzureAuth(cfg, azureFlags, env)
	case !awsFlags.IsEmpty():
		cfg.AuthMethod = omopload.AuthMethodAWSIAM
		cfg.AWSRegion = awsFlags.Region
		if cfg.AWSRegion == "" {
			cfg.AWSRegion = env.AWS_REGION
		}
	case !googleFlags.IsEmpty():
		cfg.AuthMethod = omopload.AuthMethodGoogleIAM
		cfg.GoogleInstance = googleFlags.Instance
	case env.HasAzureCredentials():
		applyAzureAuth(cfg, &AzureFlags{}, env)
	case pc.AuthMethod != "":
		if err := applyConfigAuth(cfg, pc, env); err != nil {
			return err
		}
	}

	// Certificate paths apply regardless of auth method: sslmode=verify-*
	// can ride alongside password auth, and cert-only auth is the
	// Certificate method.
	if !certFlags.IsEmpty() {
		cfg.SSLCert = certFlags.SSLCert
		cfg.SSLKey = certFlags.SSLKey
		cfg.SSLRootCert = certFlags.SSLRootCert
		if cfg.AuthMethod == omopload.AuthMethodStandard && certFlags.SSLCert != "" && certFlags.SSLKey != "" {
			cfg.AuthMethod = omopload.AuthMethodCertificate
		}
	} else if cfg.SSLCert == "" && pc.SSLCert != "" {
		cfg.SSLCert = pc.SSLCert
		cfg.SSLKey = pc.SSLKey
		cfg.SSLRootCert = pc.SSLRootCert
	}

	return nil
}

// applyAzureAuth sets Azure Entra ID authentication on the config.
// CLI flags take precedence over environment variables.
func applyAzureAuth(cfg *omopload.ConnectionConfig, flags *AzureFlags, env *EnvVars) {
	tenantID := flags.TenantID
	if tenantID == "" {
		tenantID = env.AZURE_TENANT_ID
	}

	clientID := flags.ClientID
	if clientID == "" {
		clientID = env.AZURE_CLIENT_ID
	}

	// Client secret only comes from env var (no flag for security)
	cfg.AuthMethod = omopload.AuthMethodAzureEntraID
	cfg.AzureTenantID = tenantID
	cfg.AzureClientID = clientID
	cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
}

// applyConfigAuth applies an auth_method declared in omopload.yaml.
func applyConfigAuth(cfg *omopload.ConnectionConfig, pc config.ConnectionConfig, env *EnvVars) error {
	switch pc.AuthMethod {
	case "azure":
		applyAzureAuth(cfg, &AzureFlags{TenantID: pc.AzureTenantID, ClientID: pc.AzureClientID}, env)
	case "aws-iam":
		cfg.AuthMethod = omopload.AuthMethodAWSIAM
		cfg.AWSRegion = pc.AWSRegion
		if cfg.AWSRegion == "" {
			cfg.AWSRegion = env.AWS_REGION
		}
	case "google-iam":
		cfg.AuthMethod = omopload.AuthMethodGoogleIAM
		cfg.GoogleInstance = pc.GoogleInstance
	case "certificate":
		cfg.AuthMethod = omopload.AuthMethodCertificate
	case "standard", "":
		// nothing to do
	default:
		return fmt.Errorf("unknown auth_method %q in %s: %w", pc.AuthMethod, config.ConfigFileName, omopload.ErrUnsupportedAuthMethod)
	}
	return nil
}

// resolveFromConnectionString parses a connection string and derives the maintenance database.
//
// The database component of the connection string serves dual purpose:
// 1. Initial connection target (for CREATE DATABASE operations)
// 2. Maintenance database (returned separately)
//
// The actual target database comes from --database/-d flag.
//
// Environment variables are applied as fallbacks for parameters not specified
// in the connection string (following PostgreSQL standard behavior).
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*omopload.ConnectionConfig, string, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid connection string: %w", err)
	}

	// Apply PGSSLMODE from environment if not specified in connection string
	// This follows PostgreSQL's libpq behavior where environment variables
	// serve as fallbacks for connection string parameters
	if cfg.SSLMode == "" && envVars != nil && envVars.PGSSLMODE != "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	// Default to "prefer" if still not set
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	// The database in the connection string becomes the maintenance DB
	// This is used for server-level operations (CREATE DATABASE, DROP DATABASE)
	maintenanceDB := cfg.Database
	if maintenanceDB == "" {
		maintenanceDB = omopload.DefaultManagementDB // "postgres"
	}

	return cfg, maintenanceDB, nil
}

// resolveFromGranularParams builds ConnectionConfig from granular flags and environment variables.
//
// Precedence for each parameter (following PostgreSQL standards):
//  1. CLI flag (highest priority)
//  2. Environment variable
//  3. omopload.yaml connection block
//  4. Default value (lowest priority)
//
// For granular parameters, the maintenance database is always "postgres".
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*omopload.ConnectionConfig, string, error) {
	cfg := &omopload.ConnectionConfig{
		AuthMethod:       omopload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	// Host: flag > PGHOST > omopload.yaml > default
	cfg.Host = flags.Host
	if cfg.Host == "" {
		cfg.Host = envVars.PGHOST
	}
	if cfg.Host == "" {
		cfg.Host = pc.Host
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	// Port: flag > PGPORT > omopload.yaml > default
	if flags.Port != 0 {
		cfg.Port = flags.Port
	} else if envVars.PGPORT != "" {
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, "", fmt.Errorf("invalid $PGPORT value '%s': must be an integer", envVars.PGPORT)
		}
		cfg.Port = port
	} else if pc.Port != 0 {
		cfg.Port = pc.Port
	} else {
		cfg.Port = 5432
	}

	// Username: flag > PGUSER > omopload.yaml > current OS user
	cfg.Username = flags.Username
	if cfg.Username == "" {
		cfg.Username = envVars.PGUSER
	}
	if cfg.Username == "" {
		cfg.Username = pc.Username
	}
	if cfg.Username == "" {
		if currentUser := os.Getenv("USER"); currentUser != "" {
			cfg.Username = currentUser
		} else if currentUser := os.Getenv("USERNAME"); currentUser != "" {
			cfg.Username = currentUser
		}
	}

	cfg.Password = envVars.PGPASSWORD

	// Database: flag > PGDATABASE > omopload.yaml
	cfg.Database = flags.Database
	if cfg.Database == "" {
		cfg.Database = envVars.PGDATABASE
	}
	if cfg.Database == "" {
		cfg.Database = pc.Database
	}

	// SSLMode: flag > PGSSLMODE > omopload.yaml > default
	cfg.SSLMode = flags.SSLMode
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = pc.SSLMode
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}

	// For granular parameters, maintenance database is always "postgres"
	// This is the standard database used for CREATE DATABASE operations
	maintenanceDB := omopload.DefaultManagementDB
	if pc.ManagementDatabase != "" {
		maintenanceDB = pc.ManagementDatabase
	}

	return cfg, maintenanceDB, nil
}
