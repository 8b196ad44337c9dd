package mcp

import (
	"context"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/johestephan/dokemon-api/internal/parser"
)

const (
	defaultLogTail = 100
	maxLogTail     = 5000
)

// registerTools registers all docker MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Discovery tools -----

	srv.AddTool(
		mcp.NewTool("dokemon_list_containers",
			mcp.WithDescription(
				"List containers on the docker host with their ID, image, command, "+
					"status, published ports and names. Only running containers are "+
					"listed unless all is true.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithBoolean("all",
				mcp.Description("Include stopped containers"),
			),
		),
		s.handleListContainers,
	)

	srv.AddTool(
		mcp.NewTool("dokemon_list_images",
			mcp.WithDescription("List local images with repository, tag, ID, age and size."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListImages,
	)

	srv.AddTool(
		mcp.NewTool("dokemon_list_networks",
			mcp.WithDescription("List docker networks with their ID, name, driver and scope."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListNetworks,
	)

	srv.AddTool(
		mcp.NewTool("dokemon_list_volumes",
			mcp.WithDescription("List docker volumes with their driver and name."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListVolumes,
	)

	srv.AddTool(
		mcp.NewTool("dokemon_system_info",
			mcp.WithDescription(
				"Detailed `docker info` report as nested JSON: client and server "+
					"sections, plugins and security options.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleSystemInfo,
	)

	srv.AddTool(
		mcp.NewTool("dokemon_system_summary",
			mcp.WithDescription(
				"Headline figures of the docker host: server version, container "+
					"counts by state, image count, storage driver, OS, CPUs and memory. "+
					"Use this first to get an overview.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleSystemSummary,
	)

	srv.AddTool(
		mcp.NewTool("dokemon_container_logs",
			mcp.WithDescription("Fetch the most recent log lines of a container."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("container",
				mcp.Required(),
				mcp.Description("Container ID or name"),
			),
			mcp.WithNumber("tail",
				mcp.Description("Number of lines from the end (default 100, max 5000)"),
			),
		),
		s.handleContainerLogs,
	)

	// ----- Lifecycle tools -----

	for _, verb := range []string{"start", "stop", "restart"} {
		srv.AddTool(
			mcp.NewTool("dokemon_"+verb+"_container",
				mcp.WithDescription("Run `docker "+verb+"` on a container."),
				mcp.WithToolAnnotation(mutatingAnnotation()),
				mcp.WithString("container",
					mcp.Required(),
					mcp.Description("Container ID or name"),
				),
			),
			s.containerVerb(verb),
		)
	}
}

func (s *MCPServer) handleListContainers(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	args := []string{"ps"}
	if optionalBool(request, "all", false) {
		args = append(args, "-a")
	}
	out, err := s.run(ctx, args...)
	if err != nil {
		return toolError("Failed to list containers: %v", err)
	}
	return successJSON(parser.Containers(out))
}

func (s *MCPServer) handleListImages(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	out, err := s.run(ctx, "images")
	if err != nil {
		return toolError("Failed to list images: %v", err)
	}
	return successJSON(parser.Images(out))
}

func (s *MCPServer) handleListNetworks(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	out, err := s.run(ctx, "network", "ls")
	if err != nil {
		return toolError("Failed to list networks: %v", err)
	}
	return successJSON(parser.Networks(out))
}

func (s *MCPServer) handleListVolumes(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	out, err := s.run(ctx, "volume", "ls")
	if err != nil {
		return toolError("Failed to list volumes: %v", err)
	}
	return successJSON(parser.Volumes(out))
}

func (s *MCPServer) handleSystemInfo(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	out, err := s.run(ctx, "info")
	if err != nil {
		return toolError("Failed to get system info: %v", err)
	}
	return successJSON(parser.Info(out))
}

func (s *MCPServer) handleSystemSummary(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	out, err := s.run(ctx, "info")
	if err != nil {
		return toolError("Failed to get system summary: %v", err)
	}
	return successJSON(parser.Summary(parser.Info(out)))
}

func (s *MCPServer) handleContainerLogs(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	container, err := requireArg(request, "container")
	if err != nil {
		return toolError("%v", err)
	}
	tail := clamp(optionalInt(request, "tail", defaultLogTail), 1, maxLogTail)

	out, err := s.run(ctx, "logs", "--tail", strconv.Itoa(tail), container)
	if err != nil {
		return toolError("Failed to get logs for %q: %v", container, err)
	}
	return mcp.NewToolResultText(strings.TrimSpace(out)), nil
}

func (s *MCPServer) containerVerb(verb string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		container, err := requireArg(request, "container")
		if err != nil {
			return toolError("%v", err)
		}
		if _, err := s.run(ctx, verb, container); err != nil {
			return toolError("Failed to %s %q: %v", verb, container, err)
		}
		s.logger.Info("mcp container command", "verb", verb, "container", container)
		return successJSON(map[string]interface{}{
			"success":   true,
			"container": container,
			"action":    verb,
		})
	}
}
