package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johestephan/dokemon-api/internal/model"
)

func TestInfoCoercesDigits(t *testing.T) {
	got := Info("Server:\n Containers: 3\n Images: 7\n")

	assert.Equal(t, model.InfoTree{
		"Server": map[string]any{"type": "", "Containers": 3, "Images": 7},
	}, got)
}

func TestInfoEmpty(t *testing.T) {
	assert.Equal(t, model.InfoTree{}, Info(""))
}

func TestInfoSectionsAndSubsections(t *testing.T) {
	out := `Client: Docker Engine - Community
 Version:    24.0.7
 Context:    default
 Plugins:
  buildx: Docker Buildx (Docker Inc.)
  compose: Docker Compose (Docker Inc.)

Server:
 Containers: 4
  Running: 1
 Server Version: 24.0.7
 Total Memory: 7.7GiB
 Security Options:
  apparmor
 seccomp
  Profile: builtin
 Kernel Version: 6.5.0
WARNING: No swap limit support
`
	got := Info(out)

	client, ok := got["Client"].(map[string]any)
	require.True(t, ok, "Client section present")
	assert.Equal(t, "Docker Engine - Community", client["type"])
	assert.Equal(t, "24.0.7", client["Version"], "dotted versions stay text")
	assert.Equal(t, map[string]any{
		"buildx":  "Docker Buildx (Docker Inc.)",
		"compose": "Docker Compose (Docker Inc.)",
	}, client["Plugins"])

	server, ok := got["Server"].(map[string]any)
	require.True(t, ok, "Server section present")
	assert.Equal(t, "", server["type"])
	assert.Equal(t, 4, server["Containers"])
	assert.Equal(t, "7.7GiB", server["Total Memory"])
	assert.Equal(t, "6.5.0", server["Kernel Version"])
	assert.Equal(t, "No swap limit support", server["WARNING"], "depth 0 keys nest under the open section")

	security, ok := server["Security Options"].(map[string]any)
	require.True(t, ok, "Security Options subsection present")
	assert.Equal(t, []string{"seccomp"}, security["items"])
	assert.Equal(t, "builtin", security["Profile"])

	// The subsection survives a section change, so nested counts under
	// Containers land in a Plugins map on Server.
	assert.Equal(t, map[string]any{"Running": "1"}, server["Plugins"])
	_, direct := server["Running"]
	assert.False(t, direct)
}

func TestInfoDropsLinesWithoutContext(t *testing.T) {
	out := "Debug Mode: false\n Orphan: 1\n  deeper: x\n bare item\n"

	got := Info(out)

	assert.Equal(t, model.InfoTree{"Debug Mode": "false"}, got)
}

func TestInfoSubsectionDetails(t *testing.T) {
	got := Info("Server:\n Plugins: enabled\n  Volume: local\n")

	server := got["Server"].(map[string]any)
	assert.Equal(t, map[string]any{"details": "enabled", "Volume": "local"}, server["Plugins"])
}

func TestSummary(t *testing.T) {
	info := Info("Server:\n Containers: 5\n Images: 12\n Server Version: 24.0.7\n CPUs: 8\n Operating System: Ubuntu 22.04\n")

	s := Summary(info)

	assert.Equal(t, "24.0.7", s.DockerVersion)
	assert.Equal(t, 5, s.Containers.Total)
	assert.Equal(t, 0, s.Containers.Running)
	assert.Equal(t, 12, s.Images)
	assert.Equal(t, 8, s.CPUs)
	assert.Equal(t, "Ubuntu 22.04", s.OperatingSystem)
	assert.Equal(t, "Unknown", s.StorageDriver)
}

func TestSummaryWithoutServerSection(t *testing.T) {
	s := Summary(model.InfoTree{})

	assert.Equal(t, "Unknown", s.DockerVersion)
	assert.Equal(t, 0, s.Images)
	assert.Equal(t, "Unknown", s.KernelVersion)
}
