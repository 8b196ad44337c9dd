package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/johestephan/dokemon-api/internal/parser"
)

const (
	summaryURI         = "dokemon://system/summary"
	containerURIPrefix = "dokemon://containers/"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			summaryURI,
			"Docker Host Summary",
			mcp.WithResourceDescription(
				"Server version, container counts, image count and host resources.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleSummaryResource,
	)

	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			containerURIPrefix+"{container}",
			"Container Details",
			mcp.WithTemplateDescription("Full `docker inspect` output for one container."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleContainerResource,
	)
}

func (s *MCPServer) handleSummaryResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	out, err := s.run(ctx, "info")
	if err != nil {
		return nil, fmt.Errorf("failed to get system summary: %w", err)
	}
	b, err := json.MarshalIndent(parser.Summary(parser.Info(out)), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      summaryURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func (s *MCPServer) handleContainerResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	container := strings.TrimPrefix(uri, containerURIPrefix)
	if container == "" || container == uri || strings.HasPrefix(container, "-") {
		return nil, fmt.Errorf("invalid container URI: %s", uri)
	}

	out, err := s.run(ctx, "inspect", container)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %q: %w", container, err)
	}
	if !json.Valid([]byte(out)) {
		return nil, fmt.Errorf("inspect output for %q is not JSON", container)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     out,
		},
	}, nil
}
