package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// socketPaths are the usual locations of the daemon socket.
var socketPaths = []string{
	"/var/run/docker.sock",
	"/var/run/docker.sock.raw",
	"~/.docker/run/docker.sock",
	"~/.docker/desktop/docker.sock",
}

// Check is the outcome of one diagnostic command.
type Check struct {
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (c Check) ok() bool { return c.Status == "success" }

// SocketCheck describes one candidate socket path.
type SocketCheck struct {
	Exists       bool   `json:"exists"`
	ExpandedPath string `json:"expanded_path"`
	Permissions  string `json:"permissions,omitempty"`
	Error        string `json:"error,omitempty"`
}

// DiagnosticTests groups the individual probes.
type DiagnosticTests struct {
	DockerCLI     Check                  `json:"docker_cli"`
	DockerDaemon  Check                  `json:"docker_daemon"`
	SocketFiles   map[string]SocketCheck `json:"socket_files"`
	ContainerList Check                  `json:"container_list"`
}

// Diagnostics is the connectivity report served by /docker-debug.
type Diagnostics struct {
	Platform    string            `json:"platform"`
	UID         int               `json:"uid"`
	Tests       DiagnosticTests   `json:"tests"`
	Environment map[string]string `json:"environment"`
}

// Diagnose probes the CLI, the daemon, the socket files and the docker
// environment variables. It never fails; problems are recorded in the report.
func (r *Runner) Diagnose(ctx context.Context) *Diagnostics {
	d := &Diagnostics{
		Platform: runtime.GOOS,
		UID:      os.Getuid(),
		Tests: DiagnosticTests{
			DockerCLI:     r.check(ctx, true, "--version"),
			DockerDaemon:  r.check(ctx, false, "info"),
			SocketFiles:   make(map[string]SocketCheck, len(socketPaths)),
			ContainerList: r.check(ctx, false, "ps", "--format", "json"),
		},
		Environment: map[string]string{},
	}
	for _, p := range socketPaths {
		d.Tests.SocketFiles[p] = inspectSocket(p)
	}
	for _, key := range []string{"DOCKER_HOST", "DOCKER_TLS_VERIFY", "DOCKER_CERT_PATH"} {
		d.Environment[key] = os.Getenv(key)
	}
	return d
}

// check runs one probe. Output is kept on failure only when keepOutput is set.
func (r *Runner) check(ctx context.Context, keepOutput bool, args ...string) Check {
	res, err := r.Probe(ctx, args...)
	c := Check{Status: "success", Output: res.Stdout, Error: res.Stderr}
	if err != nil {
		c.Status = "failed"
		if !keepOutput {
			c.Output = ""
		}
		if c.Error == "" {
			c.Error = err.Error()
		}
	}
	return c
}

func inspectSocket(path string) SocketCheck {
	expanded := path
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = filepath.Join(home, path[2:])
		}
	}
	sc := SocketCheck{ExpandedPath: expanded}
	info, err := os.Stat(expanded)
	if err != nil {
		if !os.IsNotExist(err) {
			sc.Error = err.Error()
		}
		return sc
	}
	sc.Exists = true
	sc.Permissions = fmt.Sprintf("%#o", uint32(info.Mode().Perm()))
	return sc
}

// Recommendations turns a report into troubleshooting hints.
func Recommendations(d *Diagnostics) []string {
	var out []string

	if !d.Tests.DockerCLI.ok() {
		out = append(out, "Docker CLI is not available. Install Docker or check PATH.")
	}

	daemonFailed := !d.Tests.DockerDaemon.ok()
	if daemonFailed {
		msg := strings.ToLower(d.Tests.DockerDaemon.Error)
		switch {
		case strings.Contains(msg, "permission denied"):
			out = append(out,
				"Docker socket permission denied. Run the API as root or add its user to the docker group.",
				`Example: docker run -d --name dokemon-api -p 9090:9090 -u root -v "/var/run/docker.sock:/var/run/docker.sock" -v dokemon_data:/app/data javastraat/dokemon-api:latest`,
			)
		case strings.Contains(msg, "protocol not available"):
			out = append(out, "Windows Docker socket protocol issue. Try running as root with the standard socket mount.")
		default:
			out = append(out, "Cannot connect to Docker daemon. Ensure Docker is running.")
		}
	}

	if d.Platform == "windows" {
		out = append(out,
			"Windows detected. Ensure Docker Desktop is running and using Linux containers.",
			`For Windows, use socket mount: -v "/var/run/docker.sock:/var/run/docker.sock"`,
		)
	}

	anySocket := false
	for _, s := range d.Tests.SocketFiles {
		if s.Exists {
			anySocket = true
			break
		}
	}
	if !anySocket {
		out = append(out, "No Docker socket files found. Check Docker installation.")
	}

	if d.UID > 0 && daemonFailed {
		out = append(out, fmt.Sprintf("Running as user ID %d (not root). Docker socket usually requires root access.", d.UID))
	}

	if len(out) == 0 {
		out = append(out, "All tests passed. Docker should be working properly.")
	}
	return out
}
