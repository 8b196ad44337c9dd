package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/johestephan/dokemon-api/internal/docker"
	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/service"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the standard failure envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{Success: false, Error: message})
}

// writeMessage writes a successful envelope carrying only a message.
func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, model.Response{Success: true, Message: message})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryBool extracts a boolean query parameter. Missing or unparsable values
// yield defaultVal; "true" and "1" are true in any case.
func queryBool(r *http.Request, key string, defaultVal bool) bool {
	val := strings.ToLower(r.URL.Query().Get(key))
	switch val {
	case "":
		return defaultVal
	case "true", "1":
		return true
	default:
		return false
	}
}

// pathArg returns the named URL parameter for use as a command argument.
// Empty values and values that would be read as a CLI option are refused
// with a 400 and ok=false.
func pathArg(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := chi.URLParam(r, name)
	if !safeArg(v) {
		writeError(w, http.StatusBadRequest, "Invalid "+name)
		return "", false
	}
	return v, true
}

// safeArg reports whether v can be passed as a positional argument.
func safeArg(v string) bool {
	return v != "" && !strings.HasPrefix(v, "-")
}

// statusForError maps a service or runtime error to its HTTP status.
func statusForError(err error) int {
	var exitErr *docker.ExitError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrLastAdmin):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountDisabled),
		errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNotFoundOrInactive):
		return http.StatusNotFound
	case errors.Is(err, docker.ErrTimeout):
		return http.StatusRequestTimeout
	case errors.As(err, &exitErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageForError returns the client-facing text for err. Unknown errors
// are prefixed with fallback.
func messageForError(err error, fallback string) string {
	if msg := service.Message(err); msg != "" {
		return msg
	}
	var exitErr *docker.ExitError
	switch {
	case errors.Is(err, docker.ErrTimeout):
		return "Command timed out"
	case errors.Is(err, docker.ErrDaemonUnreachable):
		return "Failed to connect to Docker daemon. Check Docker socket permissions."
	case errors.Is(err, docker.ErrUnavailable), errors.Is(err, docker.ErrToolNotFound):
		return "Docker is not accessible. Is Docker running?"
	case errors.As(err, &exitErr):
		return exitErr.Error()
	}
	return fallback + ": " + err.Error()
}

// writeServiceError writes err using statusForError and messageForError.
// Server-side failures are logged.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	status := statusForError(err)
	if status >= 500 {
		logger.Error(fallback, "error", err)
	}
	writeError(w, status, messageForError(err, fallback))
}
