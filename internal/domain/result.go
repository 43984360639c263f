package domain

import (
	"strings"
	"time"
)

// Step is a single command of a recipe.
type Step struct {
	Name string
	// Program is the executable. Names containing a path separator are
	// resolved relative to the step directory.
	Program string
	Args    []string
	// Dir is relative to the target directory; empty means the target itself.
	Dir string
	Env map[string]string
	// Optional steps may fail without aborting the recipe.
	Optional bool
	// Fallback runs when the step exits non-zero.
	Fallback *Step
}

// CommandLine renders the step for logs and reports.
func (s Step) CommandLine() string {
	parts := append([]string{s.Program}, s.Args...)
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"'") {
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
		}
	}
	return strings.Join(parts, " ")
}

// ExecutionResult records one step invocation. Recovered marks a failure
// absorbed by the step's fallback.
type ExecutionResult struct {
	Ecosystem Ecosystem     `json:"ecosystem"`
	Step      string        `json:"step"`
	Command   string        `json:"command"`
	Dir       string        `json:"dir"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout,omitempty"`
	Stderr    string        `json:"stderr,omitempty"`
	Duration  time.Duration `json:"duration"`
	Optional  bool          `json:"optional,omitempty"`
	Recovered bool          `json:"recovered,omitempty"`
	Err       error         `json:"-"`
}

// Succeeded reports whether the step ran and exited zero.
func (r ExecutionResult) Succeeded() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Verdict is the terminal state of a dispatch.
type Verdict string

const (
	VerdictSuccess     Verdict = "success"
	VerdictFailure     Verdict = "failure"
	VerdictUnsupported Verdict = "unsupported"
)

// DispatchOutcome is the terminal artifact of one dispatch.
type DispatchOutcome struct {
	ID         string             `json:"id"`
	Target     string             `json:"target"`
	Candidates []Ecosystem        `json:"candidates"`
	Ecosystem  Ecosystem          `json:"ecosystem"`
	Fallback   bool               `json:"fallback,omitempty"`
	Missing    []ToolMissingError `json:"missing,omitempty"`
	Results    []ExecutionResult  `json:"results"`
	Verdict    Verdict            `json:"verdict"`
	Err        error              `json:"-"`
	Duration   time.Duration      `json:"duration"`
}

// Passed reports whether the dispatch succeeded.
func (o DispatchOutcome) Passed() bool {
	return o.Verdict == VerdictSuccess
}

// FailedResult returns the last result that failed a required step, if any.
func (o DispatchOutcome) FailedResult() (ExecutionResult, bool) {
	for i := len(o.Results) - 1; i >= 0; i-- {
		r := o.Results[i]
		if !r.Optional && !r.Recovered && !r.Succeeded() {
			return r, true
		}
	}
	return ExecutionResult{}, false
}
