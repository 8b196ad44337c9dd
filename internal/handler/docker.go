package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/johestephan/dokemon-api/internal/docker"
	"github.com/johestephan/dokemon-api/internal/model"
)

// Executor runs docker CLI commands on behalf of the handlers.
// *docker.Runner satisfies it.
type Executor interface {
	Exec(ctx context.Context, args ...string) (docker.Result, error)
	Diagnose(ctx context.Context) *docker.Diagnostics
}

// DockerHandler serves the container, image, network, volume and system
// routes. Every route maps to one docker CLI invocation in argv form.
type DockerHandler struct {
	exec   Executor
	logger *slog.Logger
}

// NewDockerHandler creates a new DockerHandler.
func NewDockerHandler(exec Executor, logger *slog.Logger) *DockerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DockerHandler{exec: exec, logger: logger}
}

// output runs a command and returns its stdout. On failure the error
// response has been written and ok is false.
func (h *DockerHandler) output(w http.ResponseWriter, r *http.Request, args ...string) (string, bool) {
	res, err := h.exec.Exec(r.Context(), args...)
	if err != nil {
		writeServiceError(w, h.logger, err, "Docker command failed")
		return "", false
	}
	return res.Stdout, true
}

// command runs a command and relays its stdout.
func (h *DockerHandler) command(w http.ResponseWriter, r *http.Request, args ...string) {
	out, ok := h.output(w, r, args...)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.CommandResponse{Success: true, Output: out})
}

// withForce appends --force ahead of the positional arguments when the
// force query parameter is set.
func withForce(r *http.Request, verb []string, positional ...string) []string {
	args := append([]string{}, verb...)
	if queryBool(r, "force", false) {
		args = append(args, "--force")
	}
	return append(args, positional...)
}

// argv is a command line given either as one whitespace-separated string
// or as a JSON array of arguments.
type argv []string

func (a *argv) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = strings.Fields(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.New("command must be a string or an array of strings")
	}
	*a = list
	return nil
}

func errInvalidField(name string) error {
	return errors.New("Invalid " + name)
}
