package handler

import (
	"net/http"

	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/parser"
)

type systemInfoResponse struct {
	Success    bool           `json:"success"`
	SystemInfo model.InfoTree `json:"system_info"`
}

type systemSummaryResponse struct {
	Success bool                `json:"success"`
	Summary model.SystemSummary `json:"summary"`
}

// SystemInfo returns the scraped `docker info` report.
// GET /api/v1/system/info
func (h *DockerHandler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	out, ok := h.output(w, r, "info")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, systemInfoResponse{
		Success:    true,
		SystemInfo: parser.Info(out),
	})
}

// SystemSummary returns the headline figures of `docker info`.
// GET /api/v1/system/summary
func (h *DockerHandler) SystemSummary(w http.ResponseWriter, r *http.Request) {
	out, ok := h.output(w, r, "info")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, systemSummaryResponse{
		Success: true,
		Summary: parser.Summary(parser.Info(out)),
	})
}

// SystemStats runs `docker stats`. ?no-stream=false asks for a stream, which
// runs until the command timeout.
// GET /api/v1/system/stats
func (h *DockerHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	args := []string{"stats"}
	if queryBool(r, "no-stream", true) {
		args = append(args, "--no-stream")
	}
	h.command(w, r, args...)
}

// SystemPrune runs `docker system prune --force`. The caller must pass
// ?force=true.
// POST /api/v1/system/prune
func (h *DockerHandler) SystemPrune(w http.ResponseWriter, r *http.Request) {
	if !queryBool(r, "force", false) {
		writeError(w, http.StatusBadRequest, "Force parameter required for safety")
		return
	}
	h.command(w, r, "system", "prune", "--force")
}
