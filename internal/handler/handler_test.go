package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johestephan/dokemon-api/internal/config"
	"github.com/johestephan/dokemon-api/internal/docker"
	"github.com/johestephan/dokemon-api/internal/server/middleware"
	"github.com/johestephan/dokemon-api/internal/service"
)

const (
	testSecret   = "test-secret-for-handler-tests"
	testPassword = "supersecretpassword"
)

// fakeExecutor records every command and answers from a canned table keyed
// by the space-joined arguments.
type fakeExecutor struct {
	mu      sync.Mutex
	calls   [][]string
	outputs map[string]string
	err     error
	diag    *docker.Diagnostics
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{outputs: map[string]string{}}
}

func (f *fakeExecutor) Exec(ctx context.Context, args ...string) (docker.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	if f.err != nil {
		return docker.Result{}, f.err
	}
	return docker.Result{Stdout: f.outputs[strings.Join(args, " ")]}, nil
}

func (f *fakeExecutor) Diagnose(ctx context.Context) *docker.Diagnostics {
	return f.diag
}

func (f *fakeExecutor) lastCall() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store    *config.Store
	users    *service.Directory
	sessions *service.SessionManager
	exec     *fakeExecutor
	router   chi.Router
}

// newTestEnv creates a fresh environment over an in-memory store with the
// user and docker routes mounted behind the session middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := config.NewStore("") // in-memory SQLite
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.DiscardHandler)
	users := service.NewDirectory(store, logger)
	sessions := service.NewSessionManager(testSecret, time.Hour)
	gate := service.NewGate(sessions, users)
	exec := newFakeExecutor()

	userHandler := NewUserHandler(users, sessions, logger)
	dockerHandler := NewDockerHandler(exec, logger)
	healthHandler := NewHealthHandler(exec, "test", nil)

	r := chi.NewRouter()
	r.Use(middleware.LoadSession(sessions))
	r.Get("/health", healthHandler.Health)
	r.Get("/", healthHandler.Index)
	r.Get("/docker-debug", healthHandler.DockerDebug)
	r.Get("/openapi.json", healthHandler.OpenAPI)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", userHandler.CreateUser)
		r.Post("/login", userHandler.Login)
		r.Post("/logout", userHandler.Logout)
		r.Get("/logout", userHandler.LogoutPage)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(gate))
			r.Get("/me", userHandler.Me)
			r.Post("/changepassword", userHandler.ChangePassword)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(gate))
			r.Get("/list", userHandler.ListUsers)
			r.Get("/{username}/info", userHandler.GetUser)
			r.Post("/{username}/activate", userHandler.Activate)
			r.Post("/{username}/deactivate", userHandler.Deactivate)
			r.Post("/{username}/reset-password", userHandler.ResetPassword)
			r.Post("/admin/promote/{username}", userHandler.Promote)
			r.Post("/admin/demote/{username}", userHandler.Demote)
			r.Delete("/{username}/delete", userHandler.DeleteUser)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/containers", dockerHandler.ListContainers)
		r.Post("/containers/run", dockerHandler.RunContainer)
		r.Post("/containers/{id}/start", dockerHandler.StartContainer)
		r.Post("/containers/{id}/stop", dockerHandler.StopContainer)
		r.Post("/containers/{id}/restart", dockerHandler.RestartContainer)
		r.Delete("/containers/{id}/remove", dockerHandler.RemoveContainer)
		r.Get("/containers/{id}/logs", dockerHandler.ContainerLogs)
		r.Get("/containers/{id}/inspect", dockerHandler.InspectContainer)
		r.Post("/containers/{id}/exec", dockerHandler.ExecInContainer)

		r.Get("/images", dockerHandler.ListImages)
		r.Post("/images/pull", dockerHandler.PullImage)
		r.Post("/images/build", dockerHandler.BuildImage)
		r.Delete("/images/{id}/remove", dockerHandler.RemoveImage)

		r.Get("/networks", dockerHandler.ListNetworks)
		r.Post("/networks/create", dockerHandler.CreateNetwork)
		r.Delete("/networks/{name}/remove", dockerHandler.RemoveNetwork)

		r.Get("/volumes", dockerHandler.ListVolumes)
		r.Post("/volumes/create", dockerHandler.CreateVolume)
		r.Delete("/volumes/{name}/remove", dockerHandler.RemoveVolume)

		r.Get("/system/info", dockerHandler.SystemInfo)
		r.Get("/system/summary", dockerHandler.SystemSummary)
		r.Get("/system/stats", dockerHandler.SystemStats)
		r.Post("/system/prune", dockerHandler.SystemPrune)
	})

	return &testEnv{
		store:    store,
		users:    users,
		sessions: sessions,
		exec:     exec,
		router:   r,
	}
}

// seedUser creates an account and returns a session token for it.
func (e *testEnv) seedUser(t *testing.T, username string, isAdmin bool) string {
	t.Helper()
	if _, err := e.users.CreateUser(context.Background(), username, testPassword, nil, isAdmin); err != nil {
		t.Fatalf("seedUser(%s): %v", username, err)
	}
	token, _, err := e.sessions.Issue(username, true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, "", method, path, body)
}

// doAs is do with the session cookie set to token when non-empty.
func (e *testEnv) doAs(t *testing.T, token, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// assertError checks the failure envelope of rr.
func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	assertStatus(t, rr, status)
	var body map[string]interface{}
	decodeJSON(t, rr, &body)
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if body["error"] != message {
		t.Errorf("error = %q, want %q", body["error"], message)
	}
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}
