package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/parser"
)

const defaultLogTail = "100"

type containerListResponse struct {
	Success    bool                    `json:"success"`
	Containers []model.ContainerRecord `json:"containers"`
}

type inspectResponse struct {
	Success       bool            `json:"success"`
	ContainerInfo json.RawMessage `json:"container_info"`
}

type execRequest struct {
	Command     argv `json:"command"`
	Interactive bool `json:"interactive"`
}

type runRequest struct {
	Image       string   `json:"image"`
	Name        string   `json:"name"`
	Detached    *bool    `json:"detached,omitempty"`
	Ports       []string `json:"ports"`
	Volumes     []string `json:"volumes"`
	Environment []string `json:"environment"`
	Command     argv     `json:"command"`
}

// ListContainers parses `docker ps`, or `docker ps -a` with ?all=true.
// GET /api/v1/containers
func (h *DockerHandler) ListContainers(w http.ResponseWriter, r *http.Request) {
	args := []string{"ps"}
	if queryBool(r, "all", false) {
		args = append(args, "-a")
	}
	out, ok := h.output(w, r, args...)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, containerListResponse{
		Success:    true,
		Containers: parser.Containers(out),
	})
}

// StartContainer runs `docker start`.
// POST /api/v1/containers/{id}/start
func (h *DockerHandler) StartContainer(w http.ResponseWriter, r *http.Request) {
	h.containerVerb(w, r, "start")
}

// StopContainer runs `docker stop`.
// POST /api/v1/containers/{id}/stop
func (h *DockerHandler) StopContainer(w http.ResponseWriter, r *http.Request) {
	h.containerVerb(w, r, "stop")
}

// RestartContainer runs `docker restart`.
// POST /api/v1/containers/{id}/restart
func (h *DockerHandler) RestartContainer(w http.ResponseWriter, r *http.Request) {
	h.containerVerb(w, r, "restart")
}

func (h *DockerHandler) containerVerb(w http.ResponseWriter, r *http.Request, verb string) {
	id, ok := pathArg(w, r, "id")
	if !ok {
		return
	}
	h.command(w, r, verb, id)
}

// RemoveContainer runs `docker rm`, adding --force with ?force=true.
// DELETE /api/v1/containers/{id}/remove
func (h *DockerHandler) RemoveContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathArg(w, r, "id")
	if !ok {
		return
	}
	h.command(w, r, withForce(r, []string{"rm"}, id)...)
}

// ContainerLogs returns the last ?tail= lines (default 100, or "all").
// Following is not possible over a single response.
// GET /api/v1/containers/{id}/logs
func (h *DockerHandler) ContainerLogs(w http.ResponseWriter, r *http.Request) {
	if queryBool(r, "follow", false) {
		writeError(w, http.StatusBadRequest, "Follow mode not supported in REST API")
		return
	}
	id, ok := pathArg(w, r, "id")
	if !ok {
		return
	}
	tail := r.URL.Query().Get("tail")
	if tail == "" {
		tail = defaultLogTail
	}
	if n, err := strconv.Atoi(tail); tail != "all" && (err != nil || n < 0) {
		writeError(w, http.StatusBadRequest, "Invalid tail")
		return
	}
	h.command(w, r, "logs", "--tail", tail, id)
}

// InspectContainer relays the JSON printed by `docker inspect`.
// GET /api/v1/containers/{id}/inspect
func (h *DockerHandler) InspectContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathArg(w, r, "id")
	if !ok {
		return
	}
	out, ok := h.output(w, r, "inspect", id)
	if !ok {
		return
	}
	if !json.Valid([]byte(out)) {
		writeError(w, http.StatusInternalServerError, "Failed to parse container info")
		return
	}
	writeJSON(w, http.StatusOK, inspectResponse{
		Success:       true,
		ContainerInfo: json.RawMessage(out),
	})
}

// ExecInContainer runs a non-interactive command inside a container.
// POST /api/v1/containers/{id}/exec
func (h *DockerHandler) ExecInContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathArg(w, r, "id")
	if !ok {
		return
	}
	var req execRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Command) == 0 {
		writeError(w, http.StatusBadRequest, "Command is required")
		return
	}
	if req.Interactive {
		writeError(w, http.StatusBadRequest, "Interactive mode not supported in REST API")
		return
	}
	h.command(w, r, append([]string{"exec", id}, req.Command...)...)
}

// RunContainer starts a new container from an image.
// POST /api/v1/containers/run
func (h *DockerHandler) RunContainer(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "Image name is required")
		return
	}
	args, err := req.args()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.command(w, r, args...)
}

// args builds the `docker run` argument list. Flag values are passed as
// separate arguments so they are never parsed as options of their own.
func (req runRequest) args() ([]string, error) {
	if !safeArg(req.Image) {
		return nil, errInvalidField("image")
	}
	args := []string{"run"}
	if req.Detached == nil || *req.Detached {
		args = append(args, "-d")
	}
	if req.Name != "" {
		if !safeArg(req.Name) {
			return nil, errInvalidField("name")
		}
		args = append(args, "--name", req.Name)
	}
	for _, p := range req.Ports {
		if !strings.Contains(p, ":") {
			p = p + ":" + p
		}
		args = append(args, "-p", p)
	}
	for _, v := range req.Volumes {
		args = append(args, "-v", v)
	}
	for _, e := range req.Environment {
		args = append(args, "-e", e)
	}
	args = append(args, req.Image)
	return append(args, req.Command...), nil
}
