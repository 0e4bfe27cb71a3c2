package omopload

import "time"

// Exit codes. The process exit status is deliberately binary: automation
// built around the loader treats the exit code as the only machine-readable
// signal, and the contract is success (all expected tables present, schema
// dialect-clean) or failure. Richer failure detail goes to the log and the
// validation report, never the exit code.
const (
	ExitSuccess = 0 // run completed and validation verdict passed
	ExitFailure = 1 // any error: precondition, readiness, execution, validation
)

const (
	// DefaultForceApprovalCountdown is the countdown duration before a forced
	// approval proceeds with a destructive schema recreate.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultReadyAttempts bounds the readiness poll: the server must accept
	// a trivial query within this many attempts or the run aborts.
	DefaultReadyAttempts = 30

	// DefaultReadyDelay is the pause between readiness poll attempts.
	DefaultReadyDelay = 1 * time.Second

	// MaxErrorPreviewLength is the maximum number of characters shown when
	// previewing a failed statement or file path in error messages.
	MaxErrorPreviewLength = 200

	// DefaultManagementDB is the database used for server-level operations
	// such as CREATE DATABASE.
	DefaultManagementDB = "postgres"

	// DefaultDatabaseName is the target database created when none is configured.
	DefaultDatabaseName = "omop"

	// DefaultSchemaName is the namespace the CDM tables are created in.
	DefaultSchemaName = "cdm"

	// SchemaPlaceholder is the literal token in the DDL template that stands
	// in for the target namespace. Rendering substitutes every occurrence.
	SchemaPlaceholder = "@cdmDatabaseSchema"

	// VocabDirName is the staging subdirectory holding vocabulary exports
	// (tab-delimited, no header, upper-case file names).
	VocabDirName = "vocab"
)
