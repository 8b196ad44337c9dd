package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the Dokemon server is running",
		Long:  "Check the status of the Dokemon server, including process state, HTTP health and docker reachability.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	pid, err := readPID()
	if err != nil {
		fmt.Println("Server is not running (no PID file found).")
		return nil
	}

	if !isProcessRunning(pid) {
		removePID()
		fmt.Println("Server is not running (stale PID file removed).")
		return nil
	}

	port := viper.GetInt("server.port")
	if port == 0 {
		port = 9090
	}
	host := viper.GetString("server.host")
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	healthAddr := fmt.Sprintf("http://%s:%d/health", host, port)
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(healthAddr)
	if err != nil {
		fmt.Printf("Server process is running (PID %d) but not responding to HTTP.\n", pid)
		return nil
	}
	defer resp.Body.Close()

	var health struct {
		Status        string `json:"status"`
		DockerVersion string `json:"docker_version"`
		Error         string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	fmt.Printf("Server is running (PID %d)\n", pid)
	fmt.Printf("  Health:  %s (%d)\n", healthAddr, resp.StatusCode)
	if health.Status == "healthy" {
		fmt.Printf("  Docker:  %s\n", health.DockerVersion)
	} else if health.Error != "" {
		fmt.Printf("  Docker:  %s\n", health.Error)
	}
	fmt.Printf("  PID file: %s\n", pidFilePath())
	return nil
}
