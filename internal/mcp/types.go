// Package mcp provides a Model Context Protocol server for ngr.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Service defines the application operations needed by MCP.
type Service interface {
	Test(ctx context.Context, opts application.TestOptions) ([]domain.DispatchOutcome, error)
	Detect(ctx context.Context, opts application.DetectOptions) (application.DetectResult, error)
	Ecosystems() []domain.Ecosystem
}

// TestInput defines the input parameters for the test tool.
type TestInput struct {
	Targets           []string `json:"targets" jsonschema:"project directories whose tests should run"`
	AcceptNoVenv      bool     `json:"acceptNoVenv,omitempty" jsonschema:"allow Python projects to run outside a virtualenv"`
	WrapperRegenerate bool     `json:"wrapperRegenerate,omitempty" jsonschema:"regenerate build-tool wrappers before testing"`
	Task              string   `json:"task,omitempty" jsonschema:"task or job invoked by task-runner recipes"`
	ToolVersion       string   `json:"toolVersion,omitempty" jsonschema:"runtime version for ecosystems that support selection"`
}

// DetectInput defines the input parameters for the detect tool.
type DetectInput struct {
	Target string `json:"target,omitempty" jsonschema:"project directory to inspect, defaults to the working directory"`
}

// ListInput defines the input parameters for the list tool.
type ListInput struct{}

// StepOutput describes one executed step.
type StepOutput struct {
	Step      string `json:"step"`
	Command   string `json:"command"`
	ExitCode  int    `json:"exitCode"`
	Duration  string `json:"duration"`
	Optional  bool   `json:"optional,omitempty"`
	Recovered bool   `json:"recovered,omitempty"`
	Stdout    string `json:"stdout,omitempty"`
	Stderr    string `json:"stderr,omitempty"`
	Error     string `json:"error,omitempty"`
}

// OutcomeOutput describes the dispatch of one target.
type OutcomeOutput struct {
	Target     string       `json:"target"`
	Ecosystem  string       `json:"ecosystem,omitempty"`
	Candidates []string     `json:"candidates,omitempty"`
	Fallback   bool         `json:"fallback,omitempty"`
	Missing    []string     `json:"missing,omitempty"`
	Verdict    string       `json:"verdict"`
	ExitCode   int          `json:"exitCode"`
	Steps      []StepOutput `json:"steps,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// TestOutput is the result of the test tool.
type TestOutput struct {
	Passed   bool            `json:"passed"`
	ExitCode int             `json:"exitCode"`
	Summary  string          `json:"summary"`
	Outcomes []OutcomeOutput `json:"outcomes,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// DetectOutput is the result of the detect tool.
type DetectOutput struct {
	Target     string   `json:"target"`
	Candidates []string `json:"candidates,omitempty"`
	Selected   string   `json:"selected,omitempty"`
	Fallback   bool     `json:"fallback,omitempty"`
	Tool       string   `json:"tool,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Steps      []string `json:"steps,omitempty"`
	ExitCode   int      `json:"exitCode"`
	Error      string   `json:"error,omitempty"`
}

// ListOutput is the result of the list tool.
type ListOutput struct {
	Ecosystems []string `json:"ecosystems"`
}

func names(ecosystems []domain.Ecosystem) []string {
	if len(ecosystems) == 0 {
		return nil
	}
	out := make([]string, 0, len(ecosystems))
	for _, e := range ecosystems {
		out = append(out, string(e))
	}
	return out
}

func missing(tools []domain.ToolMissingError) []string {
	if len(tools) == 0 {
		return nil
	}
	out := make([]string, 0, len(tools))
	for _, m := range tools {
		out = append(out, m.Error())
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
