package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
	"github.com/felixgeelhaar/ngr/internal/exitcodes"
)

// handleTest implements the test tool.
func (s *Server) handleTest(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input TestInput,
) (*mcp.CallToolResult, TestOutput, error) {
	if len(input.Targets) == 0 {
		return nil, TestOutput{ExitCode: exitcodes.UsageErr, Summary: "No target given", Error: "targets must not be empty"}, nil
	}

	cfg := s.config
	if input.AcceptNoVenv {
		cfg.Options.AcceptNoVenv = true
	}
	if input.WrapperRegenerate {
		cfg.Options.WrapperRegenerate = true
	}
	cfg.Options.Task = coalesce(input.Task, cfg.Options.Task)
	cfg.Options.ToolVersion = coalesce(input.ToolVersion, cfg.Options.ToolVersion)

	outcomes, err := s.svc.Test(ctx, application.TestOptions{Targets: input.Targets, Config: cfg})
	if err != nil {
		return nil, TestOutput{ExitCode: exitcodes.RuntimeErr, Summary: "Test run failed", Error: err.Error()}, nil
	}

	output := TestOutput{
		ExitCode: exitcodes.ForOutcomes(outcomes),
		Outcomes: make([]OutcomeOutput, 0, len(outcomes)),
	}
	output.Passed = output.ExitCode == exitcodes.Success
	for _, o := range outcomes {
		output.Outcomes = append(output.Outcomes, outcomeOutput(o))
	}
	output.Summary = generateSummary(outcomes)
	return nil, output, nil
}

// handleDetect implements the detect tool.
func (s *Server) handleDetect(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input DetectInput,
) (*mcp.CallToolResult, DetectOutput, error) {
	target := coalesce(input.Target, ".")
	res, err := s.svc.Detect(ctx, application.DetectOptions{Target: target, Config: s.config})
	if err != nil {
		return nil, DetectOutput{Target: target, ExitCode: exitcodes.RuntimeErr, Error: err.Error()}, nil
	}

	output := DetectOutput{
		Target:     res.Target,
		Candidates: names(res.Candidates),
		Selected:   string(res.Selected),
		Fallback:   res.Fallback,
		Tool:       res.Tool,
		Missing:    missing(res.Missing),
		Error:      errString(res.Err),
	}
	for _, step := range res.Steps {
		output.Steps = append(output.Steps, step.CommandLine())
	}
	if res.Err != nil {
		output.ExitCode = exitcodes.ForError(res.Err)
	}
	return nil, output, nil
}

// handleList implements the list tool.
func (s *Server) handleList(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	output := ListOutput{Ecosystems: names(s.svc.Ecosystems())}
	if output.Ecosystems == nil {
		output.Ecosystems = []string{}
	}
	return nil, output, nil
}

func outcomeOutput(o domain.DispatchOutcome) OutcomeOutput {
	out := OutcomeOutput{
		Target:     o.Target,
		Ecosystem:  string(o.Ecosystem),
		Candidates: names(o.Candidates),
		Fallback:   o.Fallback,
		Missing:    missing(o.Missing),
		Verdict:    string(o.Verdict),
		ExitCode:   exitcodes.ForOutcome(o),
		Error:      errString(o.Err),
	}
	for _, r := range o.Results {
		out.Steps = append(out.Steps, StepOutput{
			Step:      r.Step,
			Command:   r.Command,
			ExitCode:  r.ExitCode,
			Duration:  r.Duration.Round(time.Millisecond).String(),
			Optional:  r.Optional,
			Recovered: r.Recovered,
			Stdout:    stripansi.Strip(r.Stdout),
			Stderr:    stripansi.Strip(r.Stderr),
			Error:     errString(r.Err),
		})
	}
	return out
}

// generateSummary creates a human-readable summary of a test run.
func generateSummary(outcomes []domain.DispatchOutcome) string {
	if len(outcomes) == 0 {
		return "No targets tested"
	}
	var passed int
	for _, o := range outcomes {
		if o.Passed() {
			passed++
		}
	}
	total := len(outcomes)
	if passed == total {
		return fmt.Sprintf("PASS | %d/%d targets passing", passed, total)
	}
	return fmt.Sprintf("FAIL | %d/%d targets passing", passed, total)
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
