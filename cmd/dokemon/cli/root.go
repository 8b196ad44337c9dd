package cli

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/johestephan/dokemon-api/internal/config"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve and the OpenAPI document
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dokemon",
		Short: "REST API for managing a Docker host",
		Long: `Dokémon NG: a REST API for Docker management.

Dokemon wraps the docker CLI behind an authenticated HTTP API: list and
control containers, images, networks and volumes, inspect the host, and
manage the user accounts allowed to do so. An MCP server exposes the same
operations to AI agents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dokemon.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite user store (default: ~/.dokemon)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	// A .env file in the working directory seeds the environment; variables
	// already set win.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dokemon")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.dokemon")
	}

	setDefaults(config.DefaultYAMLConfig())

	viper.SetEnvPrefix("DOKEMON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}

// setDefaults registers every key so that environment variables can
// override values the config file does not mention.
func setDefaults(d *config.YAMLConfig) {
	viper.SetDefault("server.host", d.Server.Host)
	viper.SetDefault("server.port", d.Server.Port)
	viper.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	viper.SetDefault("server.login_rate_limit", d.Server.LoginRateLimit)
	viper.SetDefault("database.driver", d.Database.Driver)
	viper.SetDefault("database.dsn", d.Database.DSN)
	viper.SetDefault("data_dir", d.DataDir)
	viper.SetDefault("auth.secret_key", d.Auth.SecretKey)
	viper.SetDefault("auth.session_timeout", d.Auth.SessionTimeout)
	viper.SetDefault("auth.default_admin_password", d.Auth.DefaultAdminPassword)
	viper.SetDefault("docker.binary", d.Docker.Binary)
	viper.SetDefault("docker.command_timeout", d.Docker.CommandTimeout)
	viper.SetDefault("docker.probe_timeout", d.Docker.ProbeTimeout)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
	viper.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)
	viper.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
}
