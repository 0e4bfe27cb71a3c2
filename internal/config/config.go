package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Database           string `yaml:"database"`
	ManagementDatabase string `yaml:"management_database,omitempty"`
	SSLMode            string `yaml:"sslmode"`
	SSLCert            string `yaml:"sslcert,omitempty"`
	SSLKey             string `yaml:"sslkey,omitempty"`
	SSLRootCert        string `yaml:"sslrootcert,omitempty"`
	AuthMethod         string `yaml:"auth_method,omitempty"`
	AzureTenantID      string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID      string `yaml:"azure_client_id,omitempty"`
	AWSRegion          string `yaml:"aws_region,omitempty"`
	GoogleInstance     string `yaml:"google_instance,omitempty"`
}

// SourceConfig identifies the object store staging files are fetched from.
// An empty bucket disables the fetch stage.
type SourceConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`

	// AccessKeyID names static credentials for S3-compatible endpoints.
	// The secret is never read from the config file; it comes from the
	// OMOPLOAD_S3_SECRET_ACCESS_KEY environment variable.
	AccessKeyID string `yaml:"access_key_id,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`

	// Schema is the namespace the CDM tables are created in.
	Schema string `yaml:"schema,omitempty"`

	// Staging is the staging directory; relative paths are resolved against
	// the project directory. Defaults to "staging".
	Staging string `yaml:"staging,omitempty"`

	// Datasets are the staging subdirectories holding person-keyed exports.
	// The vocabulary directory is implicit.
	Datasets []string `yaml:"datasets,omitempty"`

	// Source configures the S3 fetch stage.
	Source SourceConfig `yaml:"source,omitempty"`

	// CDMVersion selects the embedded DDL version.
	CDMVersion string `yaml:"cdm_version,omitempty"`

	Params  map[string]string `yaml:"params"`
	Timeout string            `yaml:"timeout"`
}

const ConfigFileName = "omopload.yaml"

func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
