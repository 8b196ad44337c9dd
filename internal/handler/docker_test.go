package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/johestephan/dokemon-api/internal/docker"
)

func assertCall(t *testing.T, env *testEnv, want ...string) {
	t.Helper()
	if got := env.exec.lastCall(); !reflect.DeepEqual(got, want) {
		t.Errorf("docker args = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------------

func TestListContainers(t *testing.T) {
	env := newTestEnv(t)
	header := fmt.Sprintf("%-15s%-10s%-12s%-16s%-14s%-22s%s",
		"CONTAINER ID", "IMAGE", "COMMAND", "CREATED", "STATUS", "PORTS", "NAMES")
	row := fmt.Sprintf("%-15s%-10s%-12s%-16s%-14s%-22s%s",
		"abc123def456", "nginx", `"nginx -g"`, "2 hours ago", "Up 2 hours", "0.0.0.0:80->80/tcp", "web")
	env.exec.outputs["ps -a"] = header + "\n" + row

	rr := env.do(t, "GET", "/api/v1/containers?all=true", nil)
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "ps", "-a")

	var resp containerListResponse
	decodeJSON(t, rr, &resp)
	if len(resp.Containers) != 1 {
		t.Fatalf("got %d containers, want 1", len(resp.Containers))
	}
	c := resp.Containers[0]
	if c.ContainerID != "abc123def456" || c.Status != "Up 2 hours" || c.Ports != "0.0.0.0:80->80/tcp" || c.Names != "web" {
		t.Errorf("unexpected record: %+v", c)
	}
}

func TestListContainersEmptyOutput(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/containers", nil)
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "ps")
	if !strings.Contains(rr.Body.String(), `"containers":[]`) {
		t.Errorf("expected an empty array, got %s", rr.Body.String())
	}
}

func TestContainerVerbs(t *testing.T) {
	env := newTestEnv(t)
	env.exec.outputs["stop web"] = "web"

	tests := []struct {
		method, path string
		want         []string
	}{
		{"POST", "/api/v1/containers/web/start", []string{"start", "web"}},
		{"POST", "/api/v1/containers/web/stop", []string{"stop", "web"}},
		{"POST", "/api/v1/containers/web/restart", []string{"restart", "web"}},
		{"DELETE", "/api/v1/containers/web/remove", []string{"rm", "web"}},
		{"DELETE", "/api/v1/containers/web/remove?force=true", []string{"rm", "--force", "web"}},
		{"GET", "/api/v1/containers/web/logs", []string{"logs", "--tail", "100", "web"}},
		{"GET", "/api/v1/containers/web/logs?tail=all", []string{"logs", "--tail", "all", "web"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, nil)
			assertStatus(t, rr, http.StatusOK)
			assertCall(t, env, tt.want...)
		})
	}

	rr := env.do(t, "POST", "/api/v1/containers/web/stop", nil)
	var resp map[string]interface{}
	decodeJSON(t, rr, &resp)
	if resp["success"] != true || resp["output"] != "web" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestOptionLikePathArgumentsRejected(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/containers/--rm/start",
		"/api/v1/containers/-f/logs",
	} {
		method := "POST"
		if strings.HasSuffix(path, "logs") {
			method = "GET"
		}
		rr := env.do(t, method, path, nil)
		assertError(t, rr, http.StatusBadRequest, "Invalid id")
	}
	rr := env.do(t, "DELETE", "/api/v1/volumes/-a/remove", nil)
	assertError(t, rr, http.StatusBadRequest, "Invalid name")

	if len(env.exec.calls) != 0 {
		t.Errorf("no command should run, got %q", env.exec.calls)
	}
}

func TestContainerLogsRejectsFollowAndBadTail(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/containers/web/logs?follow=true", nil)
	assertError(t, rr, http.StatusBadRequest, "Follow mode not supported in REST API")

	rr = env.do(t, "GET", "/api/v1/containers/web/logs?tail=--since", nil)
	assertError(t, rr, http.StatusBadRequest, "Invalid tail")
}

func TestInspectContainer(t *testing.T) {
	env := newTestEnv(t)
	env.exec.outputs["inspect web"] = `[{"Id":"abc","State":{"Running":true}}]`
	env.exec.outputs["inspect broken"] = `not json`

	rr := env.do(t, "GET", "/api/v1/containers/web/inspect", nil)
	assertStatus(t, rr, http.StatusOK)
	var resp struct {
		ContainerInfo []map[string]interface{} `json:"container_info"`
	}
	decodeJSON(t, rr, &resp)
	if len(resp.ContainerInfo) != 1 || resp.ContainerInfo[0]["Id"] != "abc" {
		t.Errorf("unexpected container_info: %v", resp.ContainerInfo)
	}

	rr = env.do(t, "GET", "/api/v1/containers/broken/inspect", nil)
	assertError(t, rr, http.StatusInternalServerError, "Failed to parse container info")
}

func TestExecInContainer(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/containers/web/exec", strings.NewReader(`{"command":"ls  -la /tmp"}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "exec", "web", "ls", "-la", "/tmp")

	rr = env.do(t, "POST", "/api/v1/containers/web/exec", strings.NewReader(`{"command":["sh","-c","echo a b"]}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "exec", "web", "sh", "-c", "echo a b")

	rr = env.do(t, "POST", "/api/v1/containers/web/exec", strings.NewReader(`{}`))
	assertError(t, rr, http.StatusBadRequest, "Command is required")

	rr = env.do(t, "POST", "/api/v1/containers/web/exec", strings.NewReader(`{"command":"sh","interactive":true}`))
	assertError(t, rr, http.StatusBadRequest, "Interactive mode not supported in REST API")

	rr = env.do(t, "POST", "/api/v1/containers/web/exec", strings.NewReader(`{"command":42}`))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestRunContainer(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/containers/run", toJSON(t, map[string]interface{}{
		"image":       "nginx:latest",
		"name":        "web",
		"ports":       []string{"8080:80", "443"},
		"volumes":     []string{"data:/data"},
		"environment": []string{"MODE=prod"},
		"command":     "nginx -g daemon-off",
	}))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env,
		"run", "-d", "--name", "web",
		"-p", "8080:80", "-p", "443:443",
		"-v", "data:/data",
		"-e", "MODE=prod",
		"nginx:latest", "nginx", "-g", "daemon-off")

	rr = env.do(t, "POST", "/api/v1/containers/run", strings.NewReader(`{"image":"alpine","detached":false}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "run", "alpine")

	rr = env.do(t, "POST", "/api/v1/containers/run", strings.NewReader(`{"name":"web"}`))
	assertError(t, rr, http.StatusBadRequest, "Image name is required")

	rr = env.do(t, "POST", "/api/v1/containers/run", strings.NewReader(`{"image":"--privileged"}`))
	assertError(t, rr, http.StatusBadRequest, "Invalid image")
}

// ---------------------------------------------------------------------------
// Images, networks and volumes
// ---------------------------------------------------------------------------

func TestImages(t *testing.T) {
	env := newTestEnv(t)
	env.exec.outputs["images"] = fmt.Sprintf("%-12s%-8s%-15s%-16s%s\n%-12s%-8s%-15s%-16s%s",
		"REPOSITORY", "TAG", "IMAGE ID", "CREATED", "SIZE",
		"nginx", "latest", "605c77e624dd", "3 weeks ago", "141MB")

	rr := env.do(t, "GET", "/api/v1/images", nil)
	assertStatus(t, rr, http.StatusOK)
	var list imageListResponse
	decodeJSON(t, rr, &list)
	if len(list.Images) != 1 || list.Images[0].ImageID != "605c77e624dd" || list.Images[0].Size != "141MB" {
		t.Errorf("unexpected images: %+v", list.Images)
	}

	rr = env.do(t, "POST", "/api/v1/images/pull", strings.NewReader(`{"image":"redis:7"}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "pull", "redis:7")

	rr = env.do(t, "POST", "/api/v1/images/pull", strings.NewReader(`{}`))
	assertError(t, rr, http.StatusBadRequest, "Image name is required")

	rr = env.do(t, "DELETE", "/api/v1/images/605c77e624dd/remove?force=true", nil)
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "rmi", "--force", "605c77e624dd")

	rr = env.do(t, "POST", "/api/v1/images/build", strings.NewReader(`{"tag":"app:dev"}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "build", "-t", "app:dev", "-f", "Dockerfile", ".")

	rr = env.do(t, "POST", "/api/v1/images/build", strings.NewReader(`{"path":"./src"}`))
	assertError(t, rr, http.StatusBadRequest, "Tag is required")
}

func TestNetworks(t *testing.T) {
	env := newTestEnv(t)
	env.exec.outputs["network ls"] = fmt.Sprintf("%-15s%-10s%-10s%s\n%-15s%-10s%-10s%s",
		"NETWORK ID", "NAME", "DRIVER", "SCOPE",
		"9f1c2b3a4d5e", "bridge", "bridge", "local")

	rr := env.do(t, "GET", "/api/v1/networks", nil)
	assertStatus(t, rr, http.StatusOK)
	var list networkListResponse
	decodeJSON(t, rr, &list)
	if len(list.Networks) != 1 || list.Networks[0].Name != "bridge" || list.Networks[0].Scope != "local" {
		t.Errorf("unexpected networks: %+v", list.Networks)
	}

	rr = env.do(t, "POST", "/api/v1/networks/create", strings.NewReader(`{"name":"backend"}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "network", "create", "--driver", "bridge", "backend")

	rr = env.do(t, "POST", "/api/v1/networks/create", strings.NewReader(`{"name":"overlay-net","driver":"overlay"}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "network", "create", "--driver", "overlay", "overlay-net")

	rr = env.do(t, "POST", "/api/v1/networks/create", strings.NewReader(`{}`))
	assertError(t, rr, http.StatusBadRequest, "Network name is required")

	rr = env.do(t, "DELETE", "/api/v1/networks/backend/remove", nil)
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "network", "rm", "backend")
}

func TestVolumes(t *testing.T) {
	env := newTestEnv(t)
	env.exec.outputs["volume ls"] = "DRIVER    VOLUME NAME\nlocal     pgdata"

	rr := env.do(t, "GET", "/api/v1/volumes", nil)
	assertStatus(t, rr, http.StatusOK)
	var list volumeListResponse
	decodeJSON(t, rr, &list)
	if len(list.Volumes) != 1 || list.Volumes[0].Driver != "local" || list.Volumes[0].VolumeName != "pgdata" {
		t.Errorf("unexpected volumes: %+v", list.Volumes)
	}

	rr = env.do(t, "POST", "/api/v1/volumes/create", strings.NewReader(`{"name":"cache"}`))
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "volume", "create", "cache")

	rr = env.do(t, "POST", "/api/v1/volumes/create", strings.NewReader(`{"name":"-q"}`))
	assertError(t, rr, http.StatusBadRequest, "Invalid name")

	rr = env.do(t, "DELETE", "/api/v1/volumes/cache/remove", nil)
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "volume", "rm", "cache")
}

// ---------------------------------------------------------------------------
// System
// ---------------------------------------------------------------------------

func TestSystemInfoAndSummary(t *testing.T) {
	env := newTestEnv(t)
	env.exec.outputs["info"] = "Server:\n Containers: 3\n Running: 1\n Server Version: 24.0.7\n Images: 7\n"

	rr := env.do(t, "GET", "/api/v1/system/info", nil)
	assertStatus(t, rr, http.StatusOK)
	var info struct {
		SystemInfo map[string]map[string]interface{} `json:"system_info"`
	}
	decodeJSON(t, rr, &info)
	if info.SystemInfo["Server"]["Containers"] != float64(3) {
		t.Errorf("unexpected system_info: %v", info.SystemInfo)
	}

	rr = env.do(t, "GET", "/api/v1/system/summary", nil)
	assertStatus(t, rr, http.StatusOK)
	var summary struct {
		Summary map[string]interface{} `json:"summary"`
	}
	decodeJSON(t, rr, &summary)
	if summary.Summary["docker_version"] != "24.0.7" || summary.Summary["storage_driver"] != "Unknown" {
		t.Errorf("unexpected summary: %v", summary.Summary)
	}
	if summary.Summary["images"] != float64(7) {
		t.Errorf("images = %v, want 7", summary.Summary["images"])
	}
}

func TestSystemStatsAndPrune(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/system/stats", nil)
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "stats", "--no-stream")

	rr = env.do(t, "POST", "/api/v1/system/prune", nil)
	assertError(t, rr, http.StatusBadRequest, "Force parameter required for safety")

	rr = env.do(t, "POST", "/api/v1/system/prune?force=true", nil)
	assertStatus(t, rr, http.StatusOK)
	assertCall(t, env, "system", "prune", "--force")
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func TestDockerErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"non-zero exit", &docker.ExitError{Code: 1, Stderr: "Error: No such container: web"},
			http.StatusBadRequest, "Error: No such container: web"},
		{"timeout", docker.ErrTimeout, http.StatusRequestTimeout, "Command timed out"},
		{"cli unavailable", fmt.Errorf("%w: boom", docker.ErrUnavailable),
			http.StatusInternalServerError, "Docker is not accessible. Is Docker running?"},
		{"daemon unreachable", fmt.Errorf("%w: permission denied", docker.ErrDaemonUnreachable),
			http.StatusInternalServerError, "Failed to connect to Docker daemon. Check Docker socket permissions."},
		{"unexpected", errors.New("pipe broke"),
			http.StatusInternalServerError, "Docker command failed: pipe broke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.exec.err = tt.err
			rr := env.do(t, "POST", "/api/v1/containers/web/start", nil)
			assertError(t, rr, tt.status, tt.msg)
		})
	}
}
