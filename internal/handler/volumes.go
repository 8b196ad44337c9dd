package handler

import (
	"net/http"

	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/parser"
)

type volumeListResponse struct {
	Success bool                 `json:"success"`
	Volumes []model.VolumeRecord `json:"volumes"`
}

type createVolumeRequest struct {
	Name string `json:"name"`
}

// ListVolumes parses `docker volume ls`.
// GET /api/v1/volumes
func (h *DockerHandler) ListVolumes(w http.ResponseWriter, r *http.Request) {
	out, ok := h.output(w, r, "volume", "ls")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, volumeListResponse{
		Success: true,
		Volumes: parser.Volumes(out),
	})
}

// CreateVolume runs `docker volume create`.
// POST /api/v1/volumes/create
func (h *DockerHandler) CreateVolume(w http.ResponseWriter, r *http.Request) {
	var req createVolumeRequest
	if err := readJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Volume name is required")
		return
	}
	if !safeArg(req.Name) {
		writeError(w, http.StatusBadRequest, "Invalid name")
		return
	}
	h.command(w, r, "volume", "create", req.Name)
}

// RemoveVolume runs `docker volume rm`.
// DELETE /api/v1/volumes/{name}/remove
func (h *DockerHandler) RemoveVolume(w http.ResponseWriter, r *http.Request) {
	name, ok := pathArg(w, r, "name")
	if !ok {
		return
	}
	h.command(w, r, "volume", "rm", name)
}
