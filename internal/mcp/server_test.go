package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
	"github.com/felixgeelhaar/ngr/internal/exitcodes"
)

// mockService implements the Service interface for testing.
type mockService struct {
	outcomes   []domain.DispatchOutcome
	testErr    error
	testOpts   application.TestOptions
	detect     application.DetectResult
	detectErr  error
	detectOpts application.DetectOptions
	ecosystems []domain.Ecosystem
}

func (m *mockService) Test(ctx context.Context, opts application.TestOptions) ([]domain.DispatchOutcome, error) {
	m.testOpts = opts
	return m.outcomes, m.testErr
}

func (m *mockService) Detect(ctx context.Context, opts application.DetectOptions) (application.DetectResult, error) {
	m.detectOpts = opts
	return m.detect, m.detectErr
}

func (m *mockService) Ecosystems() []domain.Ecosystem {
	return m.ecosystems
}

func passing(target string) domain.DispatchOutcome {
	return domain.DispatchOutcome{
		Target:     target,
		Candidates: []domain.Ecosystem{domain.EcosystemPython},
		Ecosystem:  domain.EcosystemPython,
		Verdict:    domain.VerdictSuccess,
		Results: []domain.ExecutionResult{{
			Step:     "test",
			Command:  "pytest",
			Stdout:   "\x1b[32m3 passed\x1b[0m\n",
			Duration: 1500 * time.Millisecond,
		}},
	}
}

func failing(target string) domain.DispatchOutcome {
	err := &domain.StepError{Step: "test", ExitCode: 101}
	return domain.DispatchOutcome{
		Target:    target,
		Ecosystem: domain.EcosystemRust,
		Verdict:   domain.VerdictFailure,
		Err:       err,
		Results: []domain.ExecutionResult{
			{Step: "install", Command: "cargo fetch", ExitCode: 1, Optional: true, Err: &domain.StepError{Step: "install", ExitCode: 1}},
			{Step: "test", Command: "cargo test", ExitCode: 101, Err: err},
		},
	}
}

func TestNew(t *testing.T) {
	cfg := application.Config{Parallel: 2}
	server := New(&mockService{}, cfg, "test")

	if server == nil {
		t.Fatal("expected non-nil server")
	}
	if server.config.Parallel != 2 {
		t.Errorf("expected config to be kept, got %+v", server.config)
	}
	if server.server == nil {
		t.Error("expected internal MCP server to be initialized")
	}
}

func TestHandleTest(t *testing.T) {
	svc := &mockService{outcomes: []domain.DispatchOutcome{passing("/work/api")}}
	server := New(svc, application.Config{Parallel: 3}, "test")

	_, out, err := server.handleTest(context.Background(), nil, TestInput{Targets: []string{"/work/api"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Passed || out.ExitCode != exitcodes.Success {
		t.Fatalf("expected passing run, got %+v", out)
	}
	if out.Summary != "PASS | 1/1 targets passing" {
		t.Errorf("unexpected summary %q", out.Summary)
	}
	if len(out.Outcomes) != 1 || len(out.Outcomes[0].Steps) != 1 {
		t.Fatalf("expected one outcome with one step, got %+v", out.Outcomes)
	}
	step := out.Outcomes[0].Steps[0]
	if step.Stdout != "3 passed\n" {
		t.Errorf("expected ANSI stripped from output, got %q", step.Stdout)
	}
	if step.Duration != "1.5s" {
		t.Errorf("unexpected duration %q", step.Duration)
	}
	if out.Outcomes[0].Ecosystem != "python" || out.Outcomes[0].Verdict != "success" {
		t.Errorf("unexpected outcome %+v", out.Outcomes[0])
	}
	if svc.testOpts.Config.Parallel != 3 {
		t.Errorf("expected server config passed through, got %+v", svc.testOpts.Config)
	}
}

func TestHandleTestFailure(t *testing.T) {
	svc := &mockService{outcomes: []domain.DispatchOutcome{passing("a"), failing("b")}}
	server := New(svc, application.Config{}, "test")

	_, out, err := server.handleTest(context.Background(), nil, TestInput{Targets: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Passed || out.ExitCode != exitcodes.TestFailure {
		t.Fatalf("expected failing run, got passed=%v exit=%d", out.Passed, out.ExitCode)
	}
	if out.Summary != "FAIL | 1/2 targets passing" {
		t.Errorf("unexpected summary %q", out.Summary)
	}
	failed := out.Outcomes[1]
	if failed.ExitCode != exitcodes.TestFailure || !strings.Contains(failed.Error, "test") {
		t.Errorf("unexpected failed outcome %+v", failed)
	}
	if !failed.Steps[0].Optional || failed.Steps[1].ExitCode != 101 {
		t.Errorf("unexpected steps %+v", failed.Steps)
	}
}

func TestHandleTestOptions(t *testing.T) {
	svc := &mockService{outcomes: []domain.DispatchOutcome{passing("a")}}
	base := application.Config{Options: domain.Options{Task: "ci", DotnetVersion: "net8.0"}}
	server := New(svc, base, "test")

	_, _, err := server.handleTest(context.Background(), nil, TestInput{
		Targets:           []string{"a"},
		AcceptNoVenv:      true,
		WrapperRegenerate: true,
		ToolVersion:       "3.12",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := svc.testOpts.Config.Options
	if !opts.AcceptNoVenv || !opts.WrapperRegenerate || opts.ToolVersion != "3.12" {
		t.Errorf("expected input overrides, got %+v", opts)
	}
	if opts.Task != "ci" || opts.DotnetVersion != "net8.0" {
		t.Errorf("expected server options kept, got %+v", opts)
	}
	if server.config.Options.AcceptNoVenv {
		t.Error("overrides must not leak into the server config")
	}
}

func TestHandleTestErrors(t *testing.T) {
	tests := []struct {
		name     string
		svc      *mockService
		input    TestInput
		exitCode int
	}{
		{
			name:     "no targets",
			svc:      &mockService{},
			input:    TestInput{},
			exitCode: exitcodes.UsageErr,
		},
		{
			name:     "service error",
			svc:      &mockService{testErr: errors.New("boom")},
			input:    TestInput{Targets: []string{"a"}},
			exitCode: exitcodes.RuntimeErr,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := New(tt.svc, application.Config{}, "test")

			_, out, err := server.handleTest(context.Background(), nil, tt.input)
			if err != nil {
				t.Fatalf("tool errors belong in the output, got %v", err)
			}
			if out.Passed || out.ExitCode != tt.exitCode || out.Error == "" {
				t.Errorf("unexpected output %+v", out)
			}
		})
	}
}

func TestHandleDetect(t *testing.T) {
	svc := &mockService{detect: application.DetectResult{
		Target:     "/work/api",
		Candidates: []domain.Ecosystem{domain.EcosystemRust, domain.EcosystemPython},
		Selected:   domain.EcosystemPython,
		Tool:       "pytest",
		Missing:    []domain.ToolMissingError{{Ecosystem: domain.EcosystemRust, Tool: "cargo"}},
		Steps:      []domain.Step{{Name: "test", Program: "pytest", Args: []string{"-q"}}},
	}}
	server := New(svc, application.Config{}, "test")

	_, out, err := server.handleDetect(context.Background(), nil, DetectInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.detectOpts.Target != "." {
		t.Errorf("expected working directory as default target, got %q", svc.detectOpts.Target)
	}
	if out.Selected != "python" || out.Tool != "pytest" || out.ExitCode != exitcodes.Success {
		t.Errorf("unexpected output %+v", out)
	}
	if len(out.Steps) != 1 || out.Steps[0] != "pytest -q" {
		t.Errorf("unexpected steps %v", out.Steps)
	}
	if len(out.Missing) != 1 || out.Missing[0] != "rust: cargo not found" {
		t.Errorf("unexpected missing %v", out.Missing)
	}
}

func TestHandleDetectUnsupported(t *testing.T) {
	svc := &mockService{detect: application.DetectResult{
		Target: "/work/docs",
		Err:    fmt.Errorf("%w: no ecosystem markers", domain.ErrUnsupportedProject),
	}}
	server := New(svc, application.Config{}, "test")

	_, out, err := server.handleDetect(context.Background(), nil, DetectInput{Target: "/work/docs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ExitCode != exitcodes.Unsupported || out.Error == "" {
		t.Errorf("expected unsupported, got %+v", out)
	}
}

func TestHandleList(t *testing.T) {
	server := New(&mockService{ecosystems: []domain.Ecosystem{domain.EcosystemGolang, domain.EcosystemRust}}, application.Config{}, "test")

	_, out, err := server.handleList(context.Background(), nil, ListInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(out.Ecosystems, ",") != "golang,rust" {
		t.Errorf("unexpected ecosystems %v", out.Ecosystems)
	}

	_, out, _ = New(&mockService{}, application.Config{}, "test").handleList(context.Background(), nil, ListInput{})
	if out.Ecosystems == nil {
		t.Error("expected an empty list, not null")
	}
}

func TestResources(t *testing.T) {
	svc := &mockService{ecosystems: []domain.Ecosystem{domain.EcosystemPython}}
	server := New(svc, application.Config{Capture: application.CaptureBuffer, Parallel: 4}, "test")

	res, err := server.handleEcosystemsResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: ecosystemsURI}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ecosystems []string
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &ecosystems); err != nil {
		t.Fatalf("decode ecosystems: %v", err)
	}
	if len(ecosystems) != 1 || ecosystems[0] != "python" {
		t.Errorf("unexpected ecosystems %v", ecosystems)
	}

	res, err = server.handleConfigResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: configURI}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := res.Contents[0].Text; !strings.Contains(text, "parallel: 4") || !strings.Contains(text, "capture: buffer") {
		t.Errorf("unexpected config %q", text)
	}
}

func TestServeOverTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc := &mockService{
		outcomes:   []domain.DispatchOutcome{passing("a")},
		ecosystems: []domain.Ecosystem{domain.EcosystemPython},
	}
	server := New(svc, application.Config{}, "test")

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	defer serverSession.Close()
	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var toolNames []string
	for _, tool := range tools.Tools {
		toolNames = append(toolNames, tool.Name)
	}
	if strings.Join(toolNames, ",") != "detect,list,test" {
		t.Errorf("unexpected tools %v", toolNames)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "test",
		Arguments: map[string]any{"targets": []string{"a"}},
	})
	if err != nil {
		t.Fatalf("call test: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	data, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out TestOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !out.Passed || len(out.Outcomes) != 1 {
		t.Errorf("unexpected output %+v", out)
	}
	if len(svc.testOpts.Targets) != 1 || svc.testOpts.Targets[0] != "a" {
		t.Errorf("unexpected targets %v", svc.testOpts.Targets)
	}
}
