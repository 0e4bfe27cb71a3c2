package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/omopkit/omopload/pkg/omopload"
)

const forcedWarningBanner = `
╔══════════════════════════════════════════════════════════════════╗
║                  DANGER: DESTRUCTIVE OPERATION                   ║
╚══════════════════════════════════════════════════════════════════╝
The schema '%s' will be DROPPED WITH ALL ITS DATA
and recreated from the CDM definition.
`

// ForcedApprover implements the Approver interface for forced (non-interactive)
// approval. It displays a countdown and automatically approves after the countdown,
// used when the --force flag is provided.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) omopload.Approver {
	return &ForcedApprover{
		verbose: verbose,
		output:  os.Stderr,
		sleepFn: time.Sleep,
	}
}

// RequestApproval displays a countdown and automatically approves after the
// countdown. The target is the schema-qualified name that will be destroyed,
// e.g. "omop.cdm".
func (a *ForcedApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintf(a.output, forcedWarningBanner, target)
	fmt.Fprintln(a.output)

	countdownSeconds := int(omopload.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rDropping in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with schema recreate...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ omopload.Approver = (*ForcedApprover)(nil)
