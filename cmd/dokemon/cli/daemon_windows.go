//go:build windows

package cli

import (
	"errors"
	"os"
)

// isProcessRunning reports whether a process is alive. Windows only
// supports Kill and Interrupt, so an interrupt probe is used: a finished
// process reports os.ErrProcessDone.
func isProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(os.Interrupt)
	return err == nil || !errors.Is(err, os.ErrProcessDone)
}

// stopProcess kills the process on Windows (no graceful SIGTERM support).
func stopProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
