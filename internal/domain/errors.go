package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedProject means no ecosystem matched and no fallback applied.
	ErrUnsupportedProject = errors.New("unsupported project")
	// ErrToolMissing means a required executable is not installed.
	ErrToolMissing = errors.New("required tool missing")
	// ErrExecutableNotFound is returned by the executor when a step's program
	// cannot be resolved. It is a ToolMissing condition.
	ErrExecutableNotFound = fmt.Errorf("executable not found: %w", ErrToolMissing)
	// ErrStepFailed means a step ran and exited non-zero.
	ErrStepFailed = errors.New("step failed")
	ErrTimeout    = errors.New("step timed out")
	ErrCancelled  = errors.New("step cancelled")
	// ErrUnknownEcosystem indicates a signature without a registered recipe.
	ErrUnknownEcosystem = errors.New("unknown ecosystem")
	// ErrPrecondition means a recipe refused to run in the current environment.
	ErrPrecondition     = errors.New("precondition failed")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrDispatcherReused = errors.New("dispatcher already used")
)

// ToolMissingError names the executable a recipe could not find.
type ToolMissingError struct {
	Ecosystem Ecosystem `json:"ecosystem"`
	Tool      string    `json:"tool"`
}

func (e ToolMissingError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Ecosystem, e.Tool)
}

func (e ToolMissingError) Unwrap() error {
	return ErrToolMissing
}

// StepError reports a non-zero exit of a step.
type StepError struct {
	Step     string
	ExitCode int
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q exited with code %d", e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error {
	return ErrStepFailed
}
