package handler

import (
	"net/http"

	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/parser"
)

type imageListResponse struct {
	Success bool                `json:"success"`
	Images  []model.ImageRecord `json:"images"`
}

type pullRequest struct {
	Image string `json:"image"`
}

type buildRequest struct {
	Tag        string `json:"tag"`
	Path       string `json:"path"`
	Dockerfile string `json:"dockerfile"`
}

// ListImages parses `docker images`.
// GET /api/v1/images
func (h *DockerHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	out, ok := h.output(w, r, "images")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, imageListResponse{
		Success: true,
		Images:  parser.Images(out),
	})
}

// PullImage runs `docker pull`.
// POST /api/v1/images/pull
func (h *DockerHandler) PullImage(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := readJSON(r, &req); err != nil || req.Image == "" {
		writeError(w, http.StatusBadRequest, "Image name is required")
		return
	}
	if !safeArg(req.Image) {
		writeError(w, http.StatusBadRequest, "Invalid image")
		return
	}
	h.command(w, r, "pull", req.Image)
}

// RemoveImage runs `docker rmi`, adding --force with ?force=true.
// DELETE /api/v1/images/{id}/remove
func (h *DockerHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathArg(w, r, "id")
	if !ok {
		return
	}
	h.command(w, r, withForce(r, []string{"rmi"}, id)...)
}

// BuildImage runs `docker build -t tag -f dockerfile path`.
// POST /api/v1/images/build
func (h *DockerHandler) BuildImage(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := readJSON(r, &req); err != nil || req.Tag == "" {
		writeError(w, http.StatusBadRequest, "Tag is required")
		return
	}
	if req.Path == "" {
		req.Path = "."
	}
	if req.Dockerfile == "" {
		req.Dockerfile = "Dockerfile"
	}
	if !safeArg(req.Path) {
		writeError(w, http.StatusBadRequest, "Invalid path")
		return
	}
	h.command(w, r, "build", "-t", req.Tag, "-f", req.Dockerfile, req.Path)
}
