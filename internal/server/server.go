package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/johestephan/dokemon-api/internal/config"
	"github.com/johestephan/dokemon-api/internal/handler"
	"github.com/johestephan/dokemon-api/internal/server/middleware"
	"github.com/johestephan/dokemon-api/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LoginRateLimit  int   // login attempts per minute per IP; 0 disables
	MaxBodySize     int64 // bytes
	Version         string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            9090,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LoginRateLimit:  10,
		MaxBodySize:     1 << 20, // 1MB
		Version:         "dev",
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the user
// store and the docker executor the handlers run commands through.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *config.Store
	users      *service.Directory
	sessions   *service.SessionManager
	gate       *service.Gate
	exec       handler.Executor
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, store *config.Store, users *service.Directory, sessions *service.SessionManager, exec handler.Executor, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		users:    users,
		sessions: sessions,
		gate:     service.NewGate(sessions, users),
		exec:     exec,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}
	r.Use(middleware.LoadSession(s.sessions))

	doc, err := handler.Document(s.cfg.Version, "")
	if err != nil {
		s.logger.Error("failed to build OpenAPI document", "error", err)
	}

	healthHandler := handler.NewHealthHandler(s.exec, s.cfg.Version, doc)
	userHandler := handler.NewUserHandler(s.users, s.sessions, s.logger)
	dockerHandler := handler.NewDockerHandler(s.exec, s.logger)

	requireAuth := middleware.RequireAuth(s.gate)
	requireAdmin := middleware.RequireAdmin(s.gate)

	// --- Informational routes (no auth required) ---
	r.Get("/", healthHandler.Index)
	r.Get("/health", healthHandler.Health)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", healthHandler.OpenAPI)
	r.With(requireAdmin).Get("/docker-debug", healthHandler.DockerDebug)

	// --- Accounts ---
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", userHandler.CreateUser)
		r.With(middleware.RateLimit(s.cfg.LoginRateLimit)).Post("/login", userHandler.Login)
		r.Post("/logout", userHandler.Logout)
		r.Get("/logout", userHandler.LogoutPage)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", userHandler.Me)
			r.Post("/changepassword", userHandler.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
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

	// --- Docker resources (session required) ---
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/api/v1/containers", func(r chi.Router) {
			r.Get("/", dockerHandler.ListContainers)
			r.Post("/run", dockerHandler.RunContainer)
			r.Post("/{id}/start", dockerHandler.StartContainer)
			r.Post("/{id}/stop", dockerHandler.StopContainer)
			r.Post("/{id}/restart", dockerHandler.RestartContainer)
			r.Delete("/{id}/remove", dockerHandler.RemoveContainer)
			r.Get("/{id}/logs", dockerHandler.ContainerLogs)
			r.Get("/{id}/inspect", dockerHandler.InspectContainer)
			r.Post("/{id}/exec", dockerHandler.ExecInContainer)
		})

		r.Route("/api/v1/images", func(r chi.Router) {
			r.Get("/", dockerHandler.ListImages)
			r.Post("/pull", dockerHandler.PullImage)
			r.Post("/build", dockerHandler.BuildImage)
			r.Delete("/{id}/remove", dockerHandler.RemoveImage)
		})

		r.Route("/api/v1/networks", func(r chi.Router) {
			r.Get("/", dockerHandler.ListNetworks)
			r.Post("/create", dockerHandler.CreateNetwork)
			r.Delete("/{name}/remove", dockerHandler.RemoveNetwork)
		})

		r.Route("/api/v1/volumes", func(r chi.Router) {
			r.Get("/", dockerHandler.ListVolumes)
			r.Post("/create", dockerHandler.CreateVolume)
			r.Delete("/{name}/remove", dockerHandler.RemoveVolume)
		})

		r.Route("/api/v1/system", func(r chi.Router) {
			r.Get("/info", dockerHandler.SystemInfo)
			r.Get("/summary", dockerHandler.SystemSummary)
			r.Get("/stats", dockerHandler.SystemStats)
			r.With(requireAdmin).Post("/prune", dockerHandler.SystemPrune)
		})
	})

	s.router = r
}

// handleReadyz is a readiness probe. Returns 200 when the user store answers
// and 503 otherwise. The docker daemon is reported by /health instead.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"database": "ok"}

	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests. Every request is traced through otelhttp.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(s.router, "dokemon-api"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
