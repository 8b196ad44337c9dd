package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level dokemon configuration file.
type YAMLConfig struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	DataDir   string          `yaml:"data_dir" mapstructure:"data_dir"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Docker    DockerConfig    `yaml:"docker" mapstructure:"docker"`
	Log       LoggingConfig   `yaml:"log" mapstructure:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	LoginRateLimit int      `yaml:"login_rate_limit" mapstructure:"login_rate_limit"`
}

// DatabaseConfig selects the user store backend. An empty DSN with the
// sqlite driver stores users.db under data_dir.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// AuthConfig controls session settings. An empty SecretKey makes the server
// generate one and keep it in the store.
type AuthConfig struct {
	SecretKey            string `yaml:"secret_key" mapstructure:"secret_key"`
	SessionTimeout       string `yaml:"session_timeout" mapstructure:"session_timeout"`
	DefaultAdminPassword string `yaml:"default_admin_password" mapstructure:"default_admin_password"`
}

// DockerConfig controls how the docker CLI is invoked.
type DockerConfig struct {
	Binary         string `yaml:"binary" mapstructure:"binary"`
	CommandTimeout string `yaml:"command_timeout" mapstructure:"command_timeout"`
	ProbeTimeout   string `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure" mapstructure:"insecure"`
}

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before parsing.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with the defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           9090,
			CORSOrigins:    []string{"*"},
			LoginRateLimit: 10,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
		},
		DataDir: "~/.dokemon",
		Auth: AuthConfig{
			SessionTimeout:       "2h",
			DefaultAdminPassword: "admin",
		},
		Docker: DockerConfig{
			Binary:         "docker",
			CommandTimeout: "30s",
			ProbeTimeout:   "5s",
		},
		Log: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultYAMLConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
