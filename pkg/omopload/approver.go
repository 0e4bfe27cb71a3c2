package omopload

import "context"

// Approver handles user interaction for approval workflows,
// particularly for destructive operations like schema recreation.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type schema name for confirmation
type Approver interface {
	// RequestApproval prompts for confirmation before dropping and recreating
	// a schema that already holds objects.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - target: Qualified name of what will be destroyed, e.g. "omop.cdm"
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, target string) (bool, error)
}
