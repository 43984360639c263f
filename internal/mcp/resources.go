package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/felixgeelhaar/ngr/internal/infrastructure/config"
)

const (
	ecosystemsURI = "ngr://ecosystems"
	configURI     = "ngr://config"
)

// handleEcosystemsResource returns the supported ecosystems.
func (s *Server) handleEcosystemsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ecosystems := names(s.svc.Ecosystems())
	if ecosystems == nil {
		ecosystems = []string{}
	}
	data, err := json.MarshalIndent(ecosystems, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ecosystems: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleConfigResource returns the configuration tool calls start from.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	var buf bytes.Buffer
	if err := config.Write(&buf, s.config); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/yaml",
			Text:     buf.String(),
		}},
	}, nil
}
