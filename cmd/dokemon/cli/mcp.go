package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dmcp "github.com/johestephan/dokemon-api/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the docker host
as tools for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for clients that launch it as a subprocess.

In HTTP mode, the server listens on the specified port using the streamable
HTTP transport. It has no authentication of its own; bind it to localhost
or put it behind a proxy.`,
		Example: `  dokemon mcp                              # stdio mode
  dokemon mcp --transport http --port 3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	// stdout carries the protocol, so logs always go to stderr.
	logger := newLogger(os.Stderr, cfg.Log)

	runner, err := newRunner(cfg.Docker, logger)
	if err != nil {
		return err
	}
	mcpSrv := dmcp.NewMCPServer(runner, versionString(), logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
