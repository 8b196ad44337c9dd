package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/johestephan/dokemon-api/internal/docker"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireArg extracts a required string argument that will be passed to the
// docker CLI. Values starting with "-" would be read as options and are
// refused.
func requireArg(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	if strings.HasPrefix(val, "-") {
		return "", fmt.Errorf("invalid %s %q", key, val)
	}
	return val, nil
}

// optionalInt extracts an optional integer argument from the tool request.
func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

// optionalBool extracts an optional boolean argument from the tool request.
func optionalBool(request mcp.CallToolRequest, key string, defaultVal bool) bool {
	return request.GetBool(key, defaultVal)
}

// --------------------------------------------------------------------------
// Command helpers
// --------------------------------------------------------------------------

// run executes a docker command and returns its stdout, or an error phrased
// for the model.
func (s *MCPServer) run(ctx context.Context, args ...string) (string, error) {
	res, err := s.exec.Exec(ctx, args...)
	if err != nil {
		s.logger.Debug("mcp docker command failed", "args", args, "error", err)
		return "", describe(err)
	}
	return res.Stdout, nil
}

// describe rewrites runtime errors into actionable text.
func describe(err error) error {
	var exitErr *docker.ExitError
	switch {
	case errors.Is(err, docker.ErrTimeout):
		return errors.New("command timed out")
	case errors.Is(err, docker.ErrDaemonUnreachable):
		return errors.New("cannot connect to the Docker daemon; check socket permissions")
	case errors.Is(err, docker.ErrUnavailable), errors.Is(err, docker.ErrToolNotFound):
		return errors.New("docker is not accessible; is it installed and running?")
	case errors.As(err, &exitErr):
		return exitErr
	}
	return err
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// clamp constrains val to [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
