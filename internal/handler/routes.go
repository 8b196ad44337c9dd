package handler

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/johestephan/dokemon-api/internal/docker"
	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/openapi"
)

var forceParam = openapi.Param{Name: "force", Type: "boolean", Description: "Pass --force to the command"}

// Catalog lists every route the server mounts. It feeds the API index at /
// and the OpenAPI document.
func Catalog() []openapi.Operation {
	const (
		pub   = openapi.Public
		auth  = openapi.Authenticated
		admin = openapi.Admin
	)
	cmd := model.CommandResponse{}
	msg := model.Response{}

	return []openapi.Operation{
		{ID: "health", Method: "GET", Path: "/health", Tag: "health", Summary: "Check Docker status", Access: pub, Response: healthResponse{}},
		{ID: "index", Method: "GET", Path: "/", Tag: "health", Summary: "API documentation", Access: pub, Response: indexResponse{}},
		{ID: "readyz", Method: "GET", Path: "/readyz", Tag: "health", Summary: "Readiness of the user store", Access: pub, Response: readinessResponse{}},
		{ID: "openapi", Method: "GET", Path: "/openapi.json", Tag: "health", Summary: "OpenAPI 3.1 document", Access: pub},
		{ID: "docker_debug", Method: "GET", Path: "/docker-debug", Tag: "health", Summary: "Docker connectivity diagnostics", Access: admin, Response: debugResponse{}},

		{ID: "list", Method: "GET", Path: "/api/v1/containers", Tag: "containers", Summary: "List containers", Access: auth, Response: containerListResponse{},
			Query: []openapi.Param{{Name: "all", Type: "boolean", Description: "Include stopped containers"}}},
		{ID: "start", Method: "POST", Path: "/api/v1/containers/{id}/start", Tag: "containers", Summary: "Start container", Access: auth, Response: cmd},
		{ID: "stop", Method: "POST", Path: "/api/v1/containers/{id}/stop", Tag: "containers", Summary: "Stop container", Access: auth, Response: cmd},
		{ID: "restart", Method: "POST", Path: "/api/v1/containers/{id}/restart", Tag: "containers", Summary: "Restart container", Access: auth, Response: cmd},
		{ID: "remove", Method: "DELETE", Path: "/api/v1/containers/{id}/remove", Tag: "containers", Summary: "Remove container", Access: auth, Response: cmd,
			Query: []openapi.Param{forceParam}},
		{ID: "logs", Method: "GET", Path: "/api/v1/containers/{id}/logs", Tag: "containers", Summary: "Get container logs", Access: auth, Response: cmd,
			Query: []openapi.Param{{Name: "tail", Type: "string", Description: "Number of lines, or all (default 100)"}}},
		{ID: "inspect", Method: "GET", Path: "/api/v1/containers/{id}/inspect", Tag: "containers", Summary: "Inspect container", Access: auth, Response: inspectResponse{}},
		{ID: "exec", Method: "POST", Path: "/api/v1/containers/{id}/exec", Tag: "containers", Summary: "Execute command in container", Access: auth,
			Request: execRequest{}, Response: cmd},
		{ID: "run", Method: "POST", Path: "/api/v1/containers/run", Tag: "containers", Summary: "Run new container", Access: auth,
			Request: runRequest{}, Response: cmd},

		{ID: "list", Method: "GET", Path: "/api/v1/images", Tag: "images", Summary: "List images", Access: auth, Response: imageListResponse{}},
		{ID: "pull", Method: "POST", Path: "/api/v1/images/pull", Tag: "images", Summary: "Pull image", Access: auth, Request: pullRequest{}, Response: cmd},
		{ID: "remove", Method: "DELETE", Path: "/api/v1/images/{id}/remove", Tag: "images", Summary: "Remove image", Access: auth, Response: cmd,
			Query: []openapi.Param{forceParam}},
		{ID: "build", Method: "POST", Path: "/api/v1/images/build", Tag: "images", Summary: "Build image", Access: auth, Request: buildRequest{}, Response: cmd},

		{ID: "list", Method: "GET", Path: "/api/v1/networks", Tag: "networks", Summary: "List networks", Access: auth, Response: networkListResponse{}},
		{ID: "create", Method: "POST", Path: "/api/v1/networks/create", Tag: "networks", Summary: "Create network", Access: auth, Request: createNetworkRequest{}, Response: cmd},
		{ID: "remove", Method: "DELETE", Path: "/api/v1/networks/{name}/remove", Tag: "networks", Summary: "Remove network", Access: auth, Response: cmd},

		{ID: "list", Method: "GET", Path: "/api/v1/volumes", Tag: "volumes", Summary: "List volumes", Access: auth, Response: volumeListResponse{}},
		{ID: "create", Method: "POST", Path: "/api/v1/volumes/create", Tag: "volumes", Summary: "Create volume", Access: auth, Request: createVolumeRequest{}, Response: cmd},
		{ID: "remove", Method: "DELETE", Path: "/api/v1/volumes/{name}/remove", Tag: "volumes", Summary: "Remove volume", Access: auth, Response: cmd},

		{ID: "info", Method: "GET", Path: "/api/v1/system/info", Tag: "system", Summary: "System information (detailed)", Access: auth, Response: systemInfoResponse{}},
		{ID: "summary", Method: "GET", Path: "/api/v1/system/summary", Tag: "system", Summary: "System summary (key stats)", Access: auth, Response: systemSummaryResponse{}},
		{ID: "stats", Method: "GET", Path: "/api/v1/system/stats", Tag: "system", Summary: "Resource statistics", Access: auth, Response: cmd,
			Query: []openapi.Param{{Name: "no-stream", Type: "boolean", Description: "Take a single sample (default true)"}}},
		{ID: "prune", Method: "POST", Path: "/api/v1/system/prune", Tag: "system", Summary: "Clean up unused objects", Access: admin, Response: cmd,
			Query: []openapi.Param{{Name: "force", Type: "boolean", Description: "Must be true"}}},

		{ID: "create", Method: "POST", Path: "/api/v1/users", Tag: "users", Summary: "Create new user", Access: pub, Status: http.StatusCreated,
			Request: createUserRequest{}, Response: userResponse{}},
		{ID: "login", Method: "POST", Path: "/api/v1/users/login", Tag: "users", Summary: "User login", Access: pub, Request: loginRequest{}, Response: loginResponse{}},
		{ID: "logout_api", Method: "POST", Path: "/api/v1/users/logout", Tag: "users", Summary: "Logout (JSON response)", Access: pub, Response: logoutResponse{}},
		{ID: "logout_page", Method: "GET", Path: "/api/v1/users/logout", Tag: "users", Summary: "Logout (HTML page)", Access: pub, HTML: true},
		{ID: "me", Method: "GET", Path: "/api/v1/users/me", Tag: "users", Summary: "Current user info", Access: auth, Response: meResponse{}},
		{ID: "change_password", Method: "POST", Path: "/api/v1/users/changepassword", Tag: "users", Summary: "Change password", Access: auth,
			Request: changePasswordRequest{}, Response: msg},
		{ID: "admin_list", Method: "GET", Path: "/api/v1/users/list", Tag: "users", Summary: "List all users", Access: admin, Response: userListResponse{},
			Query: []openapi.Param{{Name: "admins", Type: "boolean", Description: "Only admin accounts"}}},
		{ID: "admin_info", Method: "GET", Path: "/api/v1/users/{username}/info", Tag: "users", Summary: "Get user info", Access: admin, Response: userInfoResponse{}},
		{ID: "admin_activate", Method: "POST", Path: "/api/v1/users/{username}/activate", Tag: "users", Summary: "Activate user", Access: admin, Response: msg},
		{ID: "admin_deactivate", Method: "POST", Path: "/api/v1/users/{username}/deactivate", Tag: "users", Summary: "Deactivate user", Access: admin, Response: msg},
		{ID: "admin_reset", Method: "POST", Path: "/api/v1/users/{username}/reset-password", Tag: "users", Summary: "Reset password", Access: admin,
			Request: resetPasswordRequest{}, Response: msg},
		{ID: "admin_promote", Method: "POST", Path: "/api/v1/users/admin/promote/{username}", Tag: "users", Summary: "Promote to admin", Access: admin, Response: msg},
		{ID: "admin_demote", Method: "POST", Path: "/api/v1/users/admin/demote/{username}", Tag: "users", Summary: "Demote from admin", Access: admin, Response: msg},
		{ID: "admin_delete", Method: "DELETE", Path: "/api/v1/users/{username}/delete", Tag: "users", Summary: "Delete user", Access: admin, Response: msg},
	}
}

// Document renders Catalog as an OpenAPI document. serverURL may be empty.
func Document(version, serverURL string) (*openapi3.T, error) {
	return openapi.Generate(openapi.Info{
		Title:       apiName,
		Description: apiDescription,
		Version:     version,
		ServerURL:   serverURL,
	}, Catalog())
}

// readinessResponse is the payload of /readyz.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// debugResponse is the payload of /docker-debug.
type debugResponse struct {
	DebugInfo      *docker.Diagnostics `json:"debug_info"`
	Recommendation []string            `json:"recommendation"`
}
