package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/ngr/internal/application"
)

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config application.Config
	server *mcp.Server
}

// New creates a new MCP server wrapping the given service. Every tool call
// starts from cfg.
func New(svc Service, cfg application.Config, version string) *Server {
	s := &Server{
		svc:    svc,
		config: cfg,
	}
	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "ngr",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: "ngr detects the ecosystem of a project directory and runs its tests with the project's own tool-chain.",
		},
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves over stdio and blocks until the context is canceled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "test",
		Description: "Detect the ecosystem of each target directory and run its tests. Returns the verdict, exit code and step results per target.",
	}, s.handleTest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "detect",
		Description: "Show the ecosystem candidates, the selected recipe and the planned steps for a directory without running anything.",
	}, s.handleDetect)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list",
		Description: "List the supported ecosystems in priority order.",
	}, s.handleList)
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         ecosystemsURI,
		Name:        "Supported Ecosystems",
		Description: "Ecosystems ngr can test, in priority order",
		MIMEType:    "application/json",
	}, s.handleEcosystemsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         configURI,
		Name:        "Current Configuration",
		Description: "The configuration every tool call starts from",
		MIMEType:    "application/yaml",
	}, s.handleConfigResource)
}
