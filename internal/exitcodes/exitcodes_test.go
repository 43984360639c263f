package exitcodes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

func TestForOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.DispatchOutcome
		want    int
	}{
		{"success", domain.DispatchOutcome{Verdict: domain.VerdictSuccess}, Success},
		{"step failure", domain.DispatchOutcome{Verdict: domain.VerdictFailure, Err: &domain.StepError{Step: "test", ExitCode: 1}}, TestFailure},
		{"precondition", domain.DispatchOutcome{Verdict: domain.VerdictFailure, Err: fmt.Errorf("%w: no virtualenv", domain.ErrPrecondition)}, TestFailure},
		{"unsupported", domain.DispatchOutcome{Verdict: domain.VerdictUnsupported, Err: domain.ErrUnsupportedProject}, Unsupported},
		{
			"unsupported with missing tool",
			domain.DispatchOutcome{
				Verdict: domain.VerdictUnsupported,
				Missing: []domain.ToolMissingError{{Ecosystem: domain.EcosystemRust, Tool: "cargo"}},
				Err:     domain.ErrUnsupportedProject,
			},
			ToolMissing,
		},
		{"executable not found mid-recipe", domain.DispatchOutcome{Verdict: domain.VerdictFailure, Err: domain.ErrExecutableNotFound}, ToolMissing},
		{"timeout", domain.DispatchOutcome{Verdict: domain.VerdictFailure, Err: domain.ErrTimeout}, RuntimeErr},
		{"cancelled", domain.DispatchOutcome{Verdict: domain.VerdictFailure, Err: domain.ErrCancelled}, RuntimeErr},
		{"invalid target", domain.DispatchOutcome{Verdict: domain.VerdictFailure, Err: domain.ErrInvalidTarget}, RuntimeErr},
		{"unknown error", domain.DispatchOutcome{Verdict: domain.VerdictFailure, Err: errors.New("boom")}, RuntimeErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForOutcome(tt.outcome))
		})
	}
}

func TestForOutcomesHighestWins(t *testing.T) {
	outcomes := []domain.DispatchOutcome{
		{Verdict: domain.VerdictSuccess},
		{Verdict: domain.VerdictUnsupported, Err: domain.ErrUnsupportedProject},
		{Verdict: domain.VerdictFailure, Err: &domain.StepError{Step: "test", ExitCode: 2}},
	}
	assert.Equal(t, Unsupported, ForOutcomes(outcomes))
	assert.Equal(t, Success, ForOutcomes(nil))
}

func TestForErrorNil(t *testing.T) {
	assert.Equal(t, Success, ForError(nil))
}
