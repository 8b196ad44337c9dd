package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/johestephan/dokemon-api/internal/server"
	"github.com/johestephan/dokemon-api/internal/service"
	"github.com/johestephan/dokemon-api/internal/telemetry"
)

const banner = `
 ___   ___  _  _______ __  __  ___  _  _
|   \ / _ \| |/ / ____|  \/  |/ _ \| \| |
| |) | (_) | ' <|  _| | |\/| | (_) | .' |
|___/ \___/|_|\_\_____|_|  |_|\___/|_|\_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Dokemon API server",
		Long:  "Start the HTTP server that exposes the docker host and user management as a REST API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 9090, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if dev {
		cfg.Log.Level = "debug"
	}
	logger := newLogger(os.Stderr, cfg.Log)
	ctx := context.Background()

	// 1. User store
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("init user store: %w", err)
	}
	defer store.Close()
	logger.Info("user store initialized", "driver", store.Dialect(), "data_dir", cfg.DataDir)

	users := service.NewDirectory(store, logger)
	if _, err := users.BootstrapDefaultAdmin(ctx, cfg.Auth.DefaultAdminPassword); err != nil {
		return err
	}

	// 2. Sessions
	secret := cfg.Auth.SecretKey
	if secret == "" {
		if secret, err = store.SessionSecret(ctx); err != nil {
			return fmt.Errorf("load session secret: %w", err)
		}
		logger.Info("using generated session secret; set auth.secret_key to share it across instances")
	}
	timeout, err := parseDuration("auth.session_timeout", cfg.Auth.SessionTimeout)
	if err != nil {
		return err
	}
	if timeout == 0 {
		timeout = 2 * time.Hour
	}
	sessions := service.NewSessionManager(secret, timeout)

	// 3. Tracing
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure: cfg.Telemetry.Insecure,
		Version:  appVersion,
	}, store, logger)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	// 4. Docker CLI
	runner, err := newRunner(cfg.Docker, logger)
	if err != nil {
		return err
	}
	if err := runner.Preflight(ctx); err != nil {
		// Not fatal: /health and /docker-debug report the problem.
		logger.Warn("docker is not reachable yet", "error", err)
	}

	// 5. HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.CORSOrigins = cfg.Server.CORSOrigins
	srvCfg.LoginRateLimit = cfg.Server.LoginRateLimit
	srvCfg.Version = appVersion

	srv := server.New(srvCfg, store, users, sessions, runner, logger)

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "error", err)
	}
	defer removePID()

	fmt.Printf("→ Dokemon %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ API index:  http://%s:%d/\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Health:     http://%s:%d/health\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Docker:     %s\n", runner.Binary())
	fmt.Println()

	return srv.ListenAndServe()
}
