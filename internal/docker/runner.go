// Package docker runs the docker CLI as a subprocess. Commands are always
// passed as an argument vector; nothing is interpreted by a shell.
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBinary         = "docker"
	DefaultCommandTimeout = 30 * time.Second
	DefaultProbeTimeout   = 5 * time.Second

	// waitDelay bounds how long output pipes may stay open after the
	// process is killed, for children that outlive it.
	waitDelay = 500 * time.Millisecond
)

// Result is the captured outcome of one command. Stdout and Stderr are
// trimmed of surrounding whitespace.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Options configures a Runner. Zero values select the defaults.
type Options struct {
	Binary         string
	CommandTimeout time.Duration
	ProbeTimeout   time.Duration
	Logger         *slog.Logger
}

// Runner invokes the docker CLI.
type Runner struct {
	binary         string
	commandTimeout time.Duration
	probeTimeout   time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

// NewRunner creates a Runner from opts.
func NewRunner(opts Options) *Runner {
	r := &Runner{
		binary:         opts.Binary,
		commandTimeout: opts.CommandTimeout,
		probeTimeout:   opts.ProbeTimeout,
		logger:         opts.Logger,
		tracer:         otel.Tracer("github.com/johestephan/dokemon-api/internal/docker"),
	}
	if r.binary == "" {
		r.binary = DefaultBinary
	}
	if r.commandTimeout <= 0 {
		r.commandTimeout = DefaultCommandTimeout
	}
	if r.probeTimeout <= 0 {
		r.probeTimeout = DefaultProbeTimeout
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Binary returns the configured docker executable.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes docker with args under the command timeout.
//
// A missing binary yields ErrToolNotFound, an expired deadline ErrTimeout,
// and a non-zero exit an *ExitError alongside the captured Result.
func (r *Runner) Run(ctx context.Context, args ...string) (Result, error) {
	return r.run(ctx, r.commandTimeout, args)
}

// Exec runs the preflight probes and then the command. Handlers use it so a
// stopped daemon is reported as such rather than as a command failure.
func (r *Runner) Exec(ctx context.Context, args ...string) (Result, error) {
	if err := r.Preflight(ctx); err != nil {
		return Result{}, err
	}
	return r.Run(ctx, args...)
}

// Preflight checks that the CLI answers `--version` and that the daemon
// answers `info`, each under the probe timeout.
func (r *Runner) Preflight(ctx context.Context) error {
	if _, err := r.run(ctx, r.probeTimeout, []string{"--version"}); err != nil {
		r.logger.Error("docker version check failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := r.run(ctx, r.probeTimeout, []string{"info"}); err != nil {
		if errors.Is(err, ErrToolNotFound) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		r.logger.Error("docker daemon connectivity failed", "error", err)
		return fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
	}
	return nil
}

// Probe runs a single command under the probe timeout without preflight.
func (r *Runner) Probe(ctx context.Context, args ...string) (Result, error) {
	return r.run(ctx, r.probeTimeout, args)
}

func (r *Runner) run(ctx context.Context, timeout time.Duration, args []string) (Result, error) {
	name := "docker"
	if len(args) > 0 {
		name += " " + args[0]
	}
	ctx, span := r.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("docker.binary", r.binary),
		attribute.StringSlice("docker.args", args),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	span.SetAttributes(attribute.Int("docker.exit_code", res.ExitCode))

	err = r.classify(ctx, err, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("docker command failed",
			"args", args,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return res, err
	}
	r.logger.Info("docker command",
		"args", args,
		"exit_code", res.ExitCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (r *Runner) classify(ctx context.Context, err error, res Result) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run %s: %w", r.binary, ctx.Err())
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrToolNotFound, r.binary)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: res.Stderr}
	}
	return fmt.Errorf("run %s: %w", r.binary, err)
}
