package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// buildInfo is what `dokemon version` reports.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Built     string `json:"built"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	// DockerClient is the version of the configured docker CLI, filled in
	// only with --docker.
	DockerClient string `json:"docker_client,omitempty"`
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	var (
		jsonOutput  bool
		checkDocker bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Example: `  dokemon version
  dokemon version --docker --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildInfo{
				Version:   version,
				Commit:    commit,
				Built:     date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			if checkDocker {
				info.DockerClient = dockerClientVersion(cmd.Context())
			}
			return runVersion(cmd.OutOrStdout(), info, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&checkDocker, "docker", false, "Also report the docker CLI version")

	return cmd
}

func runVersion(w io.Writer, info buildInfo, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(w, "dokemon %s (%s, built %s)\n", info.Version, info.Commit, info.Built)
	fmt.Fprintf(w, "  %s on %s\n", info.GoVersion, info.Platform)
	if info.DockerClient != "" {
		fmt.Fprintf(w, "  docker client %s\n", info.DockerClient)
	}
	return nil
}

// dockerClientVersion asks the configured docker binary for its client
// version. Failures are reported in place of a version.
func dockerClientVersion(ctx context.Context) string {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadSettings()
	if err != nil {
		return "unknown (" + err.Error() + ")"
	}
	runner, err := newRunner(cfg.Docker, slog.New(slog.DiscardHandler))
	if err != nil {
		return "unknown (" + err.Error() + ")"
	}
	res, err := runner.Probe(ctx, "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return "unavailable"
	}
	return strings.TrimSpace(res.Stdout)
}
