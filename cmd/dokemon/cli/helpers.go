package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/johestephan/dokemon-api/internal/config"
	"github.com/johestephan/dokemon-api/internal/docker"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir, the data_dir
// setting (DOKEMON_DATA_DIR), or ~/.dokemon as fallback. A leading ~ is
// expanded.
func resolveDataDir() string {
	dir := dataDir
	if dir == "" {
		dir = viper.GetString("data_dir")
	}
	home, _ := os.UserHomeDir()
	if dir == "" {
		return filepath.Join(home, ".dokemon")
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir
}

// loadSettings returns the effective configuration: defaults, then the
// config file, then DOKEMON_* environment variables.
func loadSettings() (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	cfg.DataDir = resolveDataDir()
	return cfg, nil
}

// openStore opens the user store selected by database.driver. SQLite
// without a DSN lives in users.db under the data directory.
func openStore(cfg *config.YAMLConfig) (*config.Store, error) {
	driver := cfg.Database.Driver
	if driver == "" || (driver == config.DriverSQLite && cfg.Database.DSN == "") {
		return config.NewStore(cfg.DataDir)
	}
	return config.Open(driver, cfg.Database.DSN)
}

// newLogger builds the process logger from log.level and log.format.
func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseDuration parses a duration setting, naming the key on failure.
// Empty values yield zero, which selects the component default.
func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

// newRunner builds the docker CLI runner from the docker.* settings.
func newRunner(cfg config.DockerConfig, logger *slog.Logger) (*docker.Runner, error) {
	commandTimeout, err := parseDuration("docker.command_timeout", cfg.CommandTimeout)
	if err != nil {
		return nil, err
	}
	probeTimeout, err := parseDuration("docker.probe_timeout", cfg.ProbeTimeout)
	if err != nil {
		return nil, err
	}
	return docker.NewRunner(docker.Options{
		Binary:         cfg.Binary,
		CommandTimeout: commandTimeout,
		ProbeTimeout:   probeTimeout,
		Logger:         logger,
	}), nil
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "dokemon.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
