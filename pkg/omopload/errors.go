package omopload

import "errors"

// Sentinel errors for error handling and classification. Pipeline stages wrap
// these with context using fmt.Errorf("...: %w", Err...) so callers can match
// with errors.Is while logs keep the detail.
var (
	// ErrInvalidConfig indicates the run configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingTool indicates a required external tool is not installed.
	ErrMissingTool = errors.New("required tool not found")

	// ErrStagingNotFound indicates the staging directory does not exist or
	// holds no recognizable input files.
	ErrStagingNotFound = errors.New("staging directory not found")

	// ErrSchemaNotFound indicates the requested DDL version or directory
	// could not be located.
	ErrSchemaNotFound = errors.New("schema definition not found")

	// ErrNotReady indicates the database server did not accept connections
	// within the readiness window.
	ErrNotReady = errors.New("database not ready")

	// ErrConnectionFailed indicates a database connection could not be established.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrApprovalDenied indicates the user declined a destructive operation.
	ErrApprovalDenied = errors.New("operation not approved")

	// ErrExecutionFailed indicates a SQL statement or COPY failed during execution.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrValidationFailed indicates the post-load validation verdict did not pass.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnsupportedAuthMethod indicates an unknown authentication method was requested.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrNotImplemented indicates the requested feature is not implemented.
	ErrNotImplemented = errors.New("not implemented")
)

// ExitCodeForError maps an error to the process exit code. The contract is
// binary: nil means the run passed, anything else is a failure. Context
// cancellation (Ctrl+C) is a failure too, so supervisors re-run interrupted
// loads rather than trusting a half-provisioned database.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}
