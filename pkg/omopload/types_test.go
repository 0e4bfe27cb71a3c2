package omopload_test

import (
	"errors"
	"testing"
	"time"

	"github.com/omopkit/omopload/pkg/omopload"
)

func TestRunConfig_Validate(t *testing.T) {
	valid := omopload.RunConfig{
		StagingPath:      "./staging",
		DatabaseName:     "omop",
		SchemaName:       "cdm",
		ConnectionString: "postgresql://localhost:5432/postgres",
	}

	tests := []struct {
		name      string
		mutate    func(*omopload.RunConfig)
		wantError bool
		errorType error
	}{
		{
			name:      "valid config",
			mutate:    func(c *omopload.RunConfig) {},
			wantError: false,
		},
		{
			name: "valid config with overwrite and force",
			mutate: func(c *omopload.RunConfig) {
				c.Overwrite = true
				c.Force = true
			},
			wantError: false,
		},
		{
			name:      "missing staging path",
			mutate:    func(c *omopload.RunConfig) { c.StagingPath = "" },
			wantError: true,
			errorType: omopload.ErrInvalidConfig,
		},
		{
			name:      "missing database name",
			mutate:    func(c *omopload.RunConfig) { c.DatabaseName = "" },
			wantError: true,
			errorType: omopload.ErrInvalidConfig,
		},
		{
			name:      "missing schema name",
			mutate:    func(c *omopload.RunConfig) { c.SchemaName = "" },
			wantError: true,
			errorType: omopload.ErrInvalidConfig,
		},
		{
			name:      "missing connection string",
			mutate:    func(c *omopload.RunConfig) { c.ConnectionString = "" },
			wantError: true,
			errorType: omopload.ErrInvalidConfig,
		},
		{
			name:      "force without overwrite",
			mutate:    func(c *omopload.RunConfig) { c.Force = true },
			wantError: true,
			errorType: omopload.ErrInvalidConfig,
		},
		{
			name:      "negative timeout",
			mutate:    func(c *omopload.RunConfig) { c.Timeout = -1 * time.Second },
			wantError: true,
			errorType: omopload.ErrInvalidConfig,
		},
		{
			name: "zero timeout is valid",
			mutate: func(c *omopload.RunConfig) {
				c.Timeout = 0
			},
			wantError: false,
		},
		{
			name: "multiple validation errors",
			mutate: func(c *omopload.RunConfig) {
				c.StagingPath = ""
				c.DatabaseName = ""
				c.Force = true
				c.Timeout = -1 * time.Second
			},
			wantError: true,
			errorType: omopload.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := config.Validate()

			if tt.wantError {
				if err == nil {
					t.Errorf("Validate() expected error, got nil")
					return
				}

				if tt.errorType != nil && !errors.Is(err, tt.errorType) {
					t.Errorf("Validate() error type = %v, want %v", err, tt.errorType)
				}
			} else {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestConnectionConfig_DeepCopy(t *testing.T) {
	t.Run("copies AdditionalParams independently", func(t *testing.T) {
		orig := omopload.ConnectionConfig{
			Host:             "localhost",
			Port:             5432,
			AdditionalParams: map[string]string{"a": "1", "b": "2"},
		}
		cp := orig.DeepCopy()

		cp.AdditionalParams["a"] = "changed"
		cp.Host = "remote"

		if orig.AdditionalParams["a"] != "1" {
			t.Error("DeepCopy did not isolate AdditionalParams map")
		}
		if orig.Host == "remote" {
			t.Error("DeepCopy did not isolate scalar fields")
		}
		if len(cp.AdditionalParams) != 2 {
			t.Errorf("expected 2 params in copy, got %d", len(cp.AdditionalParams))
		}
	})

	t.Run("nil AdditionalParams stays nil", func(t *testing.T) {
		orig := omopload.ConnectionConfig{Host: "localhost"}
		cp := orig.DeepCopy()

		if cp.AdditionalParams != nil {
			t.Error("expected nil AdditionalParams in copy")
		}
	})
}

func TestAuthMethod_String(t *testing.T) {
	tests := []struct {
		method omopload.AuthMethod
		want   string
	}{
		{omopload.AuthMethodStandard, "Standard"},
		{omopload.AuthMethodCertificate, "Certificate"},
		{omopload.AuthMethodAWSIAM, "AWS IAM"},
		{omopload.AuthMethodGoogleIAM, "Google IAM"},
		{omopload.AuthMethodAzureEntraID, "Azure Entra ID"},
		{omopload.AuthMethod(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.method.String(); got != tt.want {
				t.Errorf("AuthMethod(%d).String() = %q, want %q", tt.method, got, tt.want)
			}
		})
	}
}

func TestLoadReport_AddFile(t *testing.T) {
	var report omopload.LoadReport

	report.AddFile(omopload.FileLoadResult{
		Table:   "concept",
		Path:    "vocab/CONCEPT.csv",
		Outcome: omopload.LoadOutcomeLoaded,
		Rows:    100,
	})
	report.AddFile(omopload.FileLoadResult{
		Table:   "person",
		Path:    "dataset/person.csv.001",
		Outcome: omopload.LoadOutcomeLoaded,
		Rows:    42,
	})
	report.AddFile(omopload.FileLoadResult{
		Table:   "death",
		Outcome: omopload.LoadOutcomeSkippedMissing,
	})
	report.AddFile(omopload.FileLoadResult{
		Table:   "cost",
		Path:    "dataset/cost.csv",
		Outcome: omopload.LoadOutcomeFailed,
		Error:   "invalid input syntax",
	})

	if report.FilesLoaded != 2 {
		t.Errorf("FilesLoaded = %d, want 2", report.FilesLoaded)
	}
	if report.RowsLoaded != 142 {
		t.Errorf("RowsLoaded = %d, want 142", report.RowsLoaded)
	}
	// A skipped file never moves the per-table tally; the loader counts
	// tables without input itself.
	if report.TablesMissing != 0 {
		t.Errorf("TablesMissing = %d, want 0", report.TablesMissing)
	}
	if report.FilesFailed != 1 {
		t.Errorf("FilesFailed = %d, want 1", report.FilesFailed)
	}
	if len(report.Results) != 4 {
		t.Errorf("len(Results) = %d, want 4", len(report.Results))
	}
}

func TestValidationReport_Finalize(t *testing.T) {
	tests := []struct {
		name           string
		report         omopload.ValidationReport
		wantPassed     bool
		wantDataLoaded bool
	}{
		{
			name: "all tables present and clean",
			report: omopload.ValidationReport{
				RowCounts: map[string]int64{"concept": 10, "person": 2},
			},
			wantPassed:     true,
			wantDataLoaded: true,
		},
		{
			name: "empty database still passes",
			report: omopload.ValidationReport{
				RowCounts: map[string]int64{"concept": 0, "person": 0},
			},
			wantPassed:     true,
			wantDataLoaded: false,
		},
		{
			name: "missing table fails",
			report: omopload.ValidationReport{
				MissingTables: []string{"drug_era"},
				RowCounts:     map[string]int64{"concept": 10, "person": 2},
			},
			wantPassed:     false,
			wantDataLoaded: true,
		},
		{
			name: "dialect finding fails",
			report: omopload.ValidationReport{
				DialectFindings: []omopload.DialectFinding{
					{Keyword: "SORTKEY", File: "omop_cdm_ddl.sql", Line: 12},
				},
				RowCounts: map[string]int64{"concept": 10, "person": 2},
			},
			wantPassed:     false,
			wantDataLoaded: true,
		},
		{
			name: "concept only is not data loaded",
			report: omopload.ValidationReport{
				RowCounts: map[string]int64{"concept": 10, "person": 0},
			},
			wantPassed:     true,
			wantDataLoaded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.report.Finalize()
			if tt.report.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v", tt.report.Passed, tt.wantPassed)
			}
			if tt.report.DataLoaded != tt.wantDataLoaded {
				t.Errorf("DataLoaded = %v, want %v", tt.report.DataLoaded, tt.wantDataLoaded)
			}
		})
	}
}
