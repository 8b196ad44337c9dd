package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

const stopPollInterval = 100 * time.Millisecond

func newStopCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running Dokemon server",
		Long: `Signal the server recorded in <data_dir>/dokemon.pid to shut down and wait
for it to drain in-flight docker commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.OutOrStdout(), wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "How long to wait for the server to exit")

	return cmd
}

func runStop(w io.Writer, wait time.Duration) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no running server found (missing PID file at %s)", pidFilePath())
	}

	if !isProcessRunning(pid) {
		removePID()
		return fmt.Errorf("server (PID %d) is not running; removed stale PID file", pid)
	}

	fmt.Fprintf(w, "Stopping Dokemon server (PID %d)...\n", pid)
	if err := stopProcess(pid); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()
	deadline := time.After(wait)
	for {
		select {
		case <-ticker.C:
			if !isProcessRunning(pid) {
				removePID()
				fmt.Fprintln(w, "Server stopped.")
				return nil
			}
		case <-deadline:
			return fmt.Errorf("server (PID %d) still running after %s; a long docker command may be draining", pid, wait)
		}
	}
}
