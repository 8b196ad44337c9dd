package docker

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound means the docker binary could not be located.
	ErrToolNotFound = errors.New("docker binary not found")
	// ErrTimeout means the command outlived its deadline.
	ErrTimeout = errors.New("command timed out")
	// ErrUnavailable means the preflight `docker --version` probe failed.
	ErrUnavailable = errors.New("docker is not accessible")
	// ErrDaemonUnreachable means the CLI works but `docker info` failed.
	ErrDaemonUnreachable = errors.New("cannot connect to docker daemon")
)

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Stderr
}
