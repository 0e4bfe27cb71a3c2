package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/omopkit/omopload/internal/db"
	"github.com/omopkit/omopload/internal/files/filesystem"
	"github.com/omopkit/omopload/internal/retry"
	"github.com/omopkit/omopload/internal/schema"
	"github.com/omopkit/omopload/internal/source"
	"github.com/omopkit/omopload/pkg/omopload"
)

type managementDBConnFunc func(ctx context.Context, connConfig *omopload.ConnectionConfig, dbName string) (omopload.DBConnection, func(), error)

type fetcherFactoryFunc func(ctx context.Context, cfg omopload.SourceConfig, logger omopload.Logger) (omopload.SourceFetcher, error)

type applierFactoryFunc func(config omopload.RunConfig, logger omopload.Logger) (omopload.SchemaApplier, error)

// RunReport aggregates the per-stage outcomes of a full load run.
type RunReport struct {
	Fetch      omopload.FetchSummary
	Extract    omopload.ExtractSummary
	Load       *omopload.LoadReport
	Validation *omopload.ValidationReport
}

// PipelineService implements the Runner interface. It composes the load
// stages in their fixed order: source acquisition, decompression,
// provisioning, schema application, bulk load, validation. Each stage is
// also exposed on its own so CLI commands can execute subsets.
//
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
// Create separate instances for concurrent runs.
type PipelineService struct {
	connectorFactory func(*omopload.ConnectionConfig) (omopload.Connector, error)
	approver         omopload.Approver
	logger           omopload.Logger
	sessionManager   omopload.SessionPreparer
	dbManager        omopload.DatabaseManager
	extractor        omopload.Extractor
	loader           omopload.BulkLoader
	validator        omopload.Validator

	mgmtConnector  managementDBConnFunc
	fetcherFactory fetcherFactoryFunc
	applierFactory applierFactoryFunc

	readyAttempts int
	readyDelay    time.Duration
}

// Compile-time interface check
var _ omopload.Runner = (*PipelineService)(nil)

// NewPipelineService creates a new PipelineService with all dependencies injected.
//
// Panic vs. Error Boundary Rationale:
//   - Panics on nil dependencies: These are programmer errors that should fail loudly
//     at application startup, not during a run. Fail-fast at construction
//     time prevents cryptic nil pointer dereferences deep in call stacks.
//   - Returns errors for runtime conditions: Configuration validation, connection
//     failures, and file system errors are recoverable runtime conditions that
//     should be handled by the caller, not panics.
func NewPipelineService(
	connectorFactory func(*omopload.ConnectionConfig) (omopload.Connector, error),
	approver omopload.Approver,
	logger omopload.Logger,
	sessionManager omopload.SessionPreparer,
	dbManager omopload.DatabaseManager,
	extractor omopload.Extractor,
	loader omopload.BulkLoader,
	validator omopload.Validator,
) *PipelineService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if approver == nil {
		panic("approver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if sessionManager == nil {
		panic("sessionManager cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}
	if extractor == nil {
		panic("extractor cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if validator == nil {
		panic("validator cannot be nil")
	}

	svc := &PipelineService{
		connectorFactory: connectorFactory,
		approver:         approver,
		logger:           logger,
		sessionManager:   sessionManager,
		dbManager:        dbManager,
		extractor:        extractor,
		loader:           loader,
		validator:        validator,
		readyAttempts:    omopload.DefaultReadyAttempts,
		readyDelay:       omopload.DefaultReadyDelay,
	}
	svc.mgmtConnector = svc.defaultMgmtConnector
	svc.fetcherFactory = defaultFetcherFactory
	svc.applierFactory = defaultApplierFactory
	return svc
}

func (s *PipelineService) defaultMgmtConnector(ctx context.Context, connConfig *omopload.ConnectionConfig, dbName string) (omopload.DBConnection, func(), error) {
	mgmtConfig := connConfig.DeepCopy()
	mgmtConfig.Database = dbName

	connector, err := s.connectorFactory(&mgmtConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database %q: %w", dbName, err)
	}

	dbConn := db.NewPoolAdapter(pool)
	cleanup := func() { pool.Close() }
	return dbConn, cleanup, nil
}

func defaultFetcherFactory(ctx context.Context, cfg omopload.SourceConfig, logger omopload.Logger) (omopload.SourceFetcher, error) {
	return source.NewFetcher(ctx, cfg, logger)
}

func defaultApplierFactory(config omopload.RunConfig, logger omopload.Logger) (omopload.SchemaApplier, error) {
	if config.DDLDir != "" {
		return schema.NewDirApplier(filesystem.NewOSFileSystem(), config.DDLDir, logger)
	}
	return schema.NewEmbeddedApplier(config.CDMVersion, logger)
}

// Run executes the full load pipeline using the provided configuration.
func (s *PipelineService) Run(ctx context.Context, config omopload.RunConfig) error {
	_, err := s.RunWithReport(ctx, config)
	return err
}

// RunWithReport executes the full load pipeline and returns the aggregated
// per-stage report alongside the verdict error.
func (s *PipelineService) RunWithReport(ctx context.Context, config omopload.RunConfig) (*RunReport, error) {
	connConfig, err := s.validateAndParseConfig(config)
	if err != nil {
		return nil, err
	}

	// Zero means no timeout: vocabulary loads run for hours
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	started := time.Now()
	report := &RunReport{}

	report.Fetch, err = s.fetch(ctx, config)
	if err != nil {
		return report, fmt.Errorf("source acquisition failed: %w", err)
	}

	report.Extract, err = s.extractor.Extract(ctx, config.StagingPath)
	if err != nil {
		return report, fmt.Errorf("decompression failed: %w", err)
	}

	if err := s.provision(ctx, connConfig, config); err != nil {
		return report, fmt.Errorf("provisioning failed: %w", err)
	}

	session, err := s.prepareTargetSession(ctx, connConfig, config)
	if err != nil {
		return report, err // Error already wrapped by SessionManager
	}
	defer session.Close()

	applier, err := s.applierFactory(config, s.logger)
	if err != nil {
		return report, err
	}

	applied, err := applier.Apply(ctx, session.Conn(), config.SchemaName, config.Parameters)
	if err != nil {
		return report, fmt.Errorf("schema application failed: %w", err)
	}
	s.logger.Info("✓ Applied CDM schema %s to '%s.%s'", applied.Version, config.DatabaseName, config.SchemaName)

	report.Load, err = s.loader.LoadTables(ctx, session.Conn(), config.SchemaName, session.ScanResult())
	if err != nil {
		return report, fmt.Errorf("bulk load failed: %w", err)
	}
	s.logLoadReport(report.Load)

	report.Validation, err = s.validator.Validate(ctx, session.Conn(), config.SchemaName, applied)
	if err != nil {
		return report, fmt.Errorf("validation could not complete: %w", err)
	}
	s.logValidation(report.Validation)

	if !report.Validation.Passed {
		return report, fmt.Errorf("%w: %s", omopload.ErrValidationFailed, verdictSummary(report.Validation))
	}

	s.logger.Info("✓ Load run completed in %s", time.Since(started).Round(time.Second))
	return report, nil
}

// Fetch runs only the source acquisition stage.
func (s *PipelineService) Fetch(ctx context.Context, config omopload.RunConfig) (omopload.FetchSummary, error) {
	if config.StagingPath == "" {
		return omopload.FetchSummary{}, fmt.Errorf("StagingPath is required: %w", omopload.ErrInvalidConfig)
	}
	if config.Source.Bucket == "" {
		return omopload.FetchSummary{}, fmt.Errorf("source bucket is required: %w", omopload.ErrInvalidConfig)
	}
	return s.fetch(ctx, config)
}

// Extract runs only the decompression stage.
func (s *PipelineService) Extract(ctx context.Context, config omopload.RunConfig) (omopload.ExtractSummary, error) {
	if config.StagingPath == "" {
		return omopload.ExtractSummary{}, fmt.Errorf("StagingPath is required: %w", omopload.ErrInvalidConfig)
	}
	return s.extractor.Extract(ctx, config.StagingPath)
}

// Provision runs only the provisioning stage: readiness wait, target
// database creation, and the schema create/recreate workflow.
func (s *PipelineService) Provision(ctx context.Context, config omopload.RunConfig) error {
	connConfig, err := s.validateAndParseConfig(config)
	if err != nil {
		return err
	}
	return s.provision(ctx, connConfig, config)
}

// Apply runs only the schema application stage on a fresh session.
func (s *PipelineService) Apply(ctx context.Context, config omopload.RunConfig) (*omopload.AppliedSchema, error) {
	connConfig, err := s.validateAndParseConfig(config)
	if err != nil {
		return nil, err
	}

	applier, err := s.applierFactory(config, s.logger)
	if err != nil {
		return nil, err
	}

	session, err := s.prepareTargetSession(ctx, connConfig, config)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	applied, err := applier.Apply(ctx, session.Conn(), config.SchemaName, config.Parameters)
	if err != nil {
		return nil, fmt.Errorf("schema application failed: %w", err)
	}
	s.logger.Info("✓ Applied CDM schema %s to '%s.%s'", applied.Version, config.DatabaseName, config.SchemaName)
	return applied, nil
}

// Load runs only the bulk load stage on a fresh session. The schema must
// already be applied.
func (s *PipelineService) Load(ctx context.Context, config omopload.RunConfig) (*omopload.LoadReport, error) {
	connConfig, err := s.validateAndParseConfig(config)
	if err != nil {
		return nil, err
	}

	session, err := s.prepareTargetSession(ctx, connConfig, config)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	report, err := s.loader.LoadTables(ctx, session.Conn(), config.SchemaName, session.ScanResult())
	if err != nil {
		return nil, fmt.Errorf("bulk load failed: %w", err)
	}
	s.logLoadReport(report)
	return report, nil
}

// Validate runs only the validation stage on a fresh session. The dialect
// check runs over the configured DDL sources; the schema checksum is absent
// because nothing was executed.
func (s *PipelineService) Validate(ctx context.Context, config omopload.RunConfig) (*omopload.ValidationReport, error) {
	connConfig, err := s.validateAndParseConfig(config)
	if err != nil {
		return nil, err
	}

	applier, err := s.applierFactory(config, s.logger)
	if err != nil {
		return nil, err
	}
	sources := &omopload.AppliedSchema{Assets: applier.Sources()}

	session, err := s.prepareTargetSession(ctx, connConfig, config)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	report, err := s.validator.Validate(ctx, session.Conn(), config.SchemaName, sources)
	if err != nil {
		return nil, fmt.Errorf("validation could not complete: %w", err)
	}
	s.logValidation(report)

	if !report.Passed {
		return report, fmt.Errorf("%w: %s", omopload.ErrValidationFailed, verdictSummary(report))
	}
	return report, nil
}

// validateAndParseConfig validates the configuration and parses the connection string.
func (s *PipelineService) validateAndParseConfig(config omopload.RunConfig) (*omopload.ConnectionConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s.logger.Verbose("Target: database '%s', schema '%s'", config.DatabaseName, config.SchemaName)
	s.logger.Verbose("Staging path: %s", config.StagingPath)

	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = "omopload"
	}

	// Apply auth method and cloud credentials from run config
	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance

	return connConfig, nil
}

// fetch downloads staging inputs when a source bucket is configured. Within
// a full run an unset bucket is a skip, not an error: local-only staging is
// a supported workflow.
func (s *PipelineService) fetch(ctx context.Context, config omopload.RunConfig) (omopload.FetchSummary, error) {
	if config.Source.Bucket == "" {
		s.logger.Verbose("No source bucket configured, skipping acquisition")
		return omopload.FetchSummary{}, nil
	}

	fetcher, err := s.fetcherFactory(ctx, config.Source, s.logger)
	if err != nil {
		return omopload.FetchSummary{}, fmt.Errorf("failed to create source fetcher: %w", err)
	}
	return fetcher.Fetch(ctx, config.StagingPath, config.Datasets)
}

// provision waits for the server, ensures the target database exists, and
// runs the schema create/recreate workflow.
func (s *PipelineService) provision(ctx context.Context, connConfig *omopload.ConnectionConfig, config omopload.RunConfig) error {
	managementDB := config.MaintenanceDatabase
	if managementDB == "" {
		managementDB = omopload.DefaultManagementDB
	}

	s.logger.Verbose("Connecting to management database '%s'", managementDB)

	mgmtConn, cleanup, err := s.mgmtConnector(ctx, connConfig, managementDB)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := s.waitUntilReady(ctx, mgmtConn); err != nil {
		return err
	}

	if err := s.ensureDatabaseExists(ctx, mgmtConn, config.DatabaseName); err != nil {
		return err
	}

	targetConn, targetCleanup, err := s.mgmtConnector(ctx, connConfig, config.DatabaseName)
	if err != nil {
		return err
	}
	defer targetCleanup()

	return s.ensureSchema(ctx, targetConn, config)
}

// waitUntilReady polls the server with a trivial statement until it answers
// or the attempt budget is exhausted. Fatal errors (bad credentials, missing
// database) abort immediately; only transient conditions are retried.
func (s *PipelineService) waitUntilReady(ctx context.Context, conn omopload.DBConnection) error {
	executor := retry.NewExecutor(
		retry.NewPostgreSQLErrorClassifier(),
		retry.NewExponentialBackoff(s.readyAttempts,
			retry.WithInitialDelay(s.readyDelay),
			retry.WithMultiplier(1.0),
			retry.WithJitter(0),
		),
	).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		s.logger.Verbose("Server not ready (attempt %d/%d): %v", attempt+1, s.readyAttempts, err)
	})

	err := executor.Execute(ctx, func(ctx context.Context) error {
		_, err := conn.Exec(ctx, queryReadinessPing)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: server did not accept queries within %d attempt(s): %v",
			omopload.ErrNotReady, s.readyAttempts, err)
	}

	s.logger.Verbose("Server is ready")
	return nil
}

// ensureDatabaseExists creates the target database if it is missing.
func (s *PipelineService) ensureDatabaseExists(ctx context.Context, conn omopload.DBConnection, dbName string) error {
	exists, err := s.dbManager.Exists(ctx, conn, dbName)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		s.logger.Info("Database '%s' does not exist. Creating...", dbName)
		if err := s.dbManager.Create(ctx, conn, dbName); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		s.logger.Verbose("✓ Database '%s' created successfully", dbName)
	} else {
		s.logger.Verbose("Database '%s' already exists", dbName)
	}

	return nil
}

// ensureSchema creates the target schema, or recreates it when overwrite is
// requested and the operator approves the destruction.
func (s *PipelineService) ensureSchema(ctx context.Context, conn omopload.DBConnection, config omopload.RunConfig) error {
	exists, err := s.dbManager.SchemaExists(ctx, conn, config.SchemaName)
	if err != nil {
		return fmt.Errorf("failed to check if schema exists: %w", err)
	}

	if !exists {
		s.logger.Info("Schema '%s' does not exist. Creating...", config.SchemaName)
		if err := s.dbManager.CreateSchema(ctx, conn, config.SchemaName); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	if !config.Overwrite {
		s.logger.Verbose("Schema '%s' already exists", config.SchemaName)
		return nil
	}

	if err := validateRecreateTarget(config.SchemaName); err != nil {
		return err
	}

	target := fmt.Sprintf("%s.%s", config.DatabaseName, config.SchemaName)
	s.logger.Verbose("Schema '%s' exists. Requesting approval for recreate.", target)
	approved, err := s.approver.RequestApproval(ctx, target)
	if err != nil {
		return fmt.Errorf("approval request failed: %w", err)
	}
	if !approved {
		return omopload.ErrApprovalDenied
	}

	s.logger.Verbose("Dropping schema '%s'", target)
	if err := s.dbManager.DropSchema(ctx, conn, config.SchemaName); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	s.logger.Verbose("Creating schema '%s'", target)
	if err := s.dbManager.CreateSchema(ctx, conn, config.SchemaName); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Info("✓ Schema '%s' recreated successfully", target)
	return nil
}

// prepareTargetSession builds the session all database stages share.
func (s *PipelineService) prepareTargetSession(ctx context.Context, connConfig *omopload.ConnectionConfig, config omopload.RunConfig) (*omopload.Session, error) {
	targetConfig := connConfig.DeepCopy()
	targetConfig.Database = config.DatabaseName
	return s.sessionManager.PrepareSession(ctx, &targetConfig, config.StagingPath, config.Datasets, config.Verbose)
}

func (s *PipelineService) logLoadReport(report *omopload.LoadReport) {
	s.logger.Info("✓ Loaded %d file(s), %d row(s)", report.FilesLoaded, report.RowsLoaded)
	if report.TablesMissing > 0 {
		s.logger.Verbose("%d table(s) had no staged file", report.TablesMissing)
	}
	if report.CompressedSkipped > 0 {
		s.logger.Info("%d still-compressed file(s) were excluded from the load", report.CompressedSkipped)
	}
	if report.FilesFailed > 0 {
		s.logger.Error("%d file(s) failed to load", report.FilesFailed)
	}
}

func (s *PipelineService) logValidation(report *omopload.ValidationReport) {
	if report.Passed {
		s.logger.Info("✓ Validation passed: %d/%d tables present, schema dialect-clean",
			report.TableCount, report.ExpectedTables)
	} else {
		s.logger.Error("✗ Validation failed: %s", verdictSummary(report))
	}
	if !report.DataLoaded {
		s.logger.Info("Note: concept and person are not both populated; the database is empty or partial")
	}
}

// verdictSummary names the verdict-relevant shortfalls, nothing else.
func verdictSummary(report *omopload.ValidationReport) string {
	var parts []string
	if len(report.MissingTables) > 0 {
		parts = append(parts, fmt.Sprintf("%d missing table(s): %s",
			len(report.MissingTables), strings.Join(preview(report.MissingTables, 5), ", ")))
	}
	if len(report.DialectFindings) > 0 {
		f := report.DialectFindings[0]
		parts = append(parts, fmt.Sprintf("%d foreign-dialect keyword(s) in DDL sources (first: %s at %s:%d)",
			len(report.DialectFindings), f.Keyword, f.File, f.Line))
	}
	if len(parts) == 0 {
		return "no shortfalls"
	}
	return strings.Join(parts, "; ")
}

func preview(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return append(append([]string{}, items[:n]...), "...")
}

// validateRecreateTarget refuses to drop PostgreSQL system schemas no matter
// what the configuration says.
func validateRecreateTarget(schemaName string) error {
	lower := strings.ToLower(schemaName)
	if lower == "information_schema" || strings.HasPrefix(lower, "pg_") {
		return fmt.Errorf(
			"cannot recreate schema %q: it is a PostgreSQL system schema: %w",
			schemaName, omopload.ErrInvalidConfig,
		)
	}
	return nil
}
