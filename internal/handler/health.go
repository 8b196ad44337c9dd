package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/johestephan/dokemon-api/internal/docker"
	"github.com/johestephan/dokemon-api/internal/openapi"
)

const (
	// SoftwareName is reported by /health and the API index.
	SoftwareName = "Dokémon NG"

	apiName        = "Dokémon NG API"
	apiDescription = "A RESTful API for Docker management"
)

// HealthHandler serves the unversioned informational routes: /health, the
// API index at /, the Docker diagnostics and the OpenAPI document.
type HealthHandler struct {
	exec    Executor
	version string
	doc     *openapi3.T
}

// NewHealthHandler creates a new HealthHandler. doc may be nil, in which
// case /openapi.json answers 404.
func NewHealthHandler(exec Executor, version string, doc *openapi3.T) *HealthHandler {
	return &HealthHandler{exec: exec, version: version, doc: doc}
}

type healthResponse struct {
	Status          string `json:"status"`
	DockerVersion   string `json:"docker_version,omitempty"`
	Error           string `json:"error,omitempty"`
	SoftwareName    string `json:"software_name"`
	SoftwareVersion string `json:"software_version"`
}

type indexResponse struct {
	Message      string                       `json:"message"`
	Version      string                       `json:"version"`
	Description  string                       `json:"description"`
	SoftwareName string                       `json:"software_name"`
	Endpoints    map[string]map[string]string `json:"endpoints"`
}

// Health reports whether the docker CLI and daemon answer.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		SoftwareName:    SoftwareName,
		SoftwareVersion: h.version,
	}
	res, err := h.exec.Exec(r.Context(), "--version")
	if err != nil {
		resp.Status = "unhealthy"
		resp.Error = messageForError(err, "Docker check failed")
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.Status = "healthy"
	resp.DockerVersion = res.Stdout
	writeJSON(w, http.StatusOK, resp)
}

// Index lists every route grouped by resource.
// GET /
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]map[string]string{}
	for _, op := range Catalog() {
		group, ok := endpoints[op.Tag]
		if !ok {
			group = map[string]string{}
			endpoints[op.Tag] = group
		}
		line := op.Method + " " + op.Path + " - " + op.Summary
		if op.Access == openapi.Admin {
			line += " (admin)"
		}
		group[op.ID] = line
	}

	writeJSON(w, http.StatusOK, indexResponse{
		Message:      apiName,
		Version:      h.version,
		Description:  apiDescription,
		SoftwareName: SoftwareName,
		Endpoints:    endpoints,
	})
}

// DockerDebug runs the connectivity diagnostics and suggests fixes.
// GET /docker-debug
func (h *HealthHandler) DockerDebug(w http.ResponseWriter, r *http.Request) {
	d := h.exec.Diagnose(r.Context())
	writeJSON(w, http.StatusOK, debugResponse{
		DebugInfo:      d,
		Recommendation: docker.Recommendations(d),
	})
}

// OpenAPI serves the generated OpenAPI document.
// GET /openapi.json
func (h *HealthHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	if h.doc == nil {
		writeError(w, http.StatusNotFound, "OpenAPI document not available")
		return
	}
	writeJSON(w, http.StatusOK, h.doc)
}
