package handler

import (
	"net/http"

	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/parser"
)

const defaultNetworkDriver = "bridge"

type networkListResponse struct {
	Success  bool                  `json:"success"`
	Networks []model.NetworkRecord `json:"networks"`
}

type createNetworkRequest struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
}

// ListNetworks parses `docker network ls`.
// GET /api/v1/networks
func (h *DockerHandler) ListNetworks(w http.ResponseWriter, r *http.Request) {
	out, ok := h.output(w, r, "network", "ls")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, networkListResponse{
		Success:  true,
		Networks: parser.Networks(out),
	})
}

// CreateNetwork runs `docker network create --driver driver name`.
// POST /api/v1/networks/create
func (h *DockerHandler) CreateNetwork(w http.ResponseWriter, r *http.Request) {
	var req createNetworkRequest
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Network name is required")
		return
	}
	if req.Driver == "" {
		req.Driver = defaultNetworkDriver
	}
	if !safeArg(req.Name) {
		writeError(w, http.StatusBadRequest, "Invalid name")
		return
	}
	h.command(w, r, "network", "create", "--driver", req.Driver, req.Name)
}

// RemoveNetwork runs `docker network rm`.
// DELETE /api/v1/networks/{name}/remove
func (h *DockerHandler) RemoveNetwork(w http.ResponseWriter, r *http.Request) {
	name, ok := pathArg(w, r, "name")
	if !ok {
		return
	}
	h.command(w, r, "network", "rm", name)
}
