package omopload

import (
	"errors"
	"fmt"
	"time"
)

// RunConfig contains all parameters needed for a load run.
type RunConfig struct {
	// StagingPath is the local directory the source files are downloaded to,
	// decompressed in, and loaded from
	StagingPath string

	// DatabaseName is the target database name
	DatabaseName string

	// SchemaName is the namespace the CDM tables are created in
	SchemaName string

	// MaintenanceDatabase is the database to connect to for server-level operations
	// (CREATE DATABASE). Typically "postgres".
	MaintenanceDatabase string

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format)
	// After CLI resolution, this contains the TARGET database connection
	ConnectionString string

	// Datasets are the staging subdirectories holding person-keyed exports
	// (comma-delimited, with header). The vocabulary directory is implicit.
	Datasets []string

	// Source describes the object store the staging files are fetched from.
	// An empty bucket disables the fetch stage entirely.
	Source SourceConfig

	// DDLDir overrides the embedded schema definition with an on-disk directory
	DDLDir string

	// CDMVersion selects the embedded schema definition version
	CDMVersion string

	// Overwrite enables the destructive schema drop/recreate workflow
	Overwrite bool

	// Force bypasses interactive approval when used with Overwrite
	Force bool

	// Parameters are extra key-value pairs substituted into the DDL template
	Parameters map[string]string

	// Timeout is the global timeout for the entire run. Zero means no timeout:
	// vocabulary loads run for hours and are never killed mid-COPY.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is the region for AWS RDS IAM token acquisition
	// (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance format (used when AuthMethod is AuthMethodGoogleIAM)
	GoogleInstance string
}

// SourceConfig identifies the S3 bucket and key layout the staging files are
// acquired from. Endpoint and PathStyle support S3-compatible stores such as
// MinIO used in tests.
type SourceConfig struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool

	// AccessKeyID and SecretAccessKey select static credentials, typically
	// for an S3-compatible endpoint. When empty the default AWS credential
	// chain applies.
	AccessKeyID     string
	SecretAccessKey string
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.StagingPath == "" {
		errs = append(errs, fmt.Errorf("StagingPath is required: %w", ErrInvalidConfig))
	}

	if c.DatabaseName == "" {
		errs = append(errs, fmt.Errorf("DatabaseName is required: %w", ErrInvalidConfig))
	}

	if c.SchemaName == "" {
		errs = append(errs, fmt.Errorf("SchemaName is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	// Force requires Overwrite to be set
	if c.Force && !c.Overwrite {
		errs = append(errs, fmt.Errorf("force flag requires overwrite to be enabled: %w", ErrInvalidConfig))
	}

	// Validate timeout if set
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Client certificate paths for mTLS authentication
	// (used when AuthMethod is AuthMethodCertificate, or alongside sslmode=verify-*)
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is the region for AWS RDS IAM token acquisition
	// (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance format (used when AuthMethod is AuthMethodGoogleIAM)
	GoogleInstance string
}

// DeepCopy returns an independent copy of the config. Connectors that inject
// short-lived tokens mutate the password field; they must never write through
// to the caller's config.
func (c ConnectionConfig) DeepCopy() ConnectionConfig {
	cp := c
	if c.AdditionalParams != nil {
		cp.AdditionalParams = make(map[string]string, len(c.AdditionalParams))
		for k, v := range c.AdditionalParams {
			cp.AdditionalParams[k] = v
		}
	}
	return cp
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodCertificate                    // mTLS
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodCertificate:
		return "Certificate"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
