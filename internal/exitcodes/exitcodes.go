// Package exitcodes defines the exit codes used by ngr.
package exitcodes

import (
	"errors"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Exit code constants. With several targets the highest code wins.
//
// * Success (0): every target passed
// * TestFailure (1): a step of a recipe failed
// * Unsupported (2): no ecosystem matched a target
// * ToolMissing (3): the ecosystem matched but its tool is not installed
// * RuntimeErr (4): timeouts, cancellation, invalid targets and internal errors
// * UsageErr (5): bad flags or configuration
const (
	Success     = 0
	TestFailure = 1
	Unsupported = 2
	ToolMissing = 3
	RuntimeErr  = 4
	UsageErr    = 5
)

// ForOutcome maps a dispatch outcome to its exit code.
func ForOutcome(o domain.DispatchOutcome) int {
	switch o.Verdict {
	case domain.VerdictSuccess:
		return Success
	case domain.VerdictUnsupported:
		if len(o.Missing) > 0 {
			return ToolMissing
		}
		return Unsupported
	}
	return ForError(o.Err)
}

// ForError classifies a failure error.
func ForError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, domain.ErrTimeout),
		errors.Is(err, domain.ErrCancelled),
		errors.Is(err, domain.ErrInvalidTarget),
		errors.Is(err, domain.ErrUnknownEcosystem),
		errors.Is(err, domain.ErrDispatcherReused):
		return RuntimeErr
	case errors.Is(err, domain.ErrToolMissing):
		return ToolMissing
	case errors.Is(err, domain.ErrUnsupportedProject):
		return Unsupported
	case errors.Is(err, domain.ErrStepFailed), errors.Is(err, domain.ErrPrecondition):
		return TestFailure
	default:
		return RuntimeErr
	}
}

// ForOutcomes returns the highest exit code among outcomes.
func ForOutcomes(outcomes []domain.DispatchOutcome) int {
	code := Success
	for _, o := range outcomes {
		code = max(code, ForOutcome(o))
	}
	return code
}
