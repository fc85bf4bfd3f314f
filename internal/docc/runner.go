package docc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/doccbuild/internal/logfields"
)

// ErrDoccNotFound indicates no docc executable could be located.
var ErrDoccNotFound = errors.New("docc executable not found")

// Runner launches the external docc compiler.
type Runner struct {
	execPath string
}

// NewRunner locates the docc executable: an explicit path wins, then the
// DOCC_EXEC environment variable, then a PATH lookup.
func NewRunner(explicitPath string) (*Runner, error) {
	candidates := []string{explicitPath, os.Getenv("DOCC_EXEC")}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDoccNotFound, candidate, err)
		}
		return &Runner{execPath: candidate}, nil
	}

	path, err := exec.LookPath("docc")
	if err != nil {
		return nil, ErrDoccNotFound
	}
	return &Runner{execPath: path}, nil
}

// Path returns the resolved docc executable path.
func (r *Runner) Path() string { return r.execPath }

// Run executes docc with the given arguments (the first argument is the docc
// subcommand, e.g. "convert"). SIGINT and SIGTERM received while the child
// runs are forwarded to it; a nonzero or signal-terminated exit is reported
// as an error. Output streams pass through untouched.
func (r *Runner) Run(ctx context.Context, args Arguments) error {
	cmd := exec.CommandContext(ctx, r.execPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	// On context cancellation send SIGTERM so docc can shut down cleanly
	// (the default Cancel kills outright); escalate to SIGKILL only after
	// the wait delay.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second

	slog.Info("Running docc", logfields.Path(r.execPath), slog.Any("args", []string(args)))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start docc: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	relayDone := make(chan struct{})
	defer func() {
		signal.Stop(sigs)
		close(relayDone)
	}()

	go func() {
		for {
			select {
			case sig := <-sigs:
				slog.Debug("Forwarding signal to docc", slog.String("signal", sig.String()))
				if err := cmd.Process.Signal(sig); err != nil {
					slog.Warn("Failed to forward signal to docc", logfields.Error(err))
				}
			case <-relayDone:
				return
			}
		}
	}()

	if err := cmd.Wait(); err != nil {
		return interpretExit(err)
	}
	return nil
}

// interpretExit maps process termination into a caller-facing error: any
// nonzero or abnormal exit is a failure.
func interpretExit(err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("docc: %w", err)
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return fmt.Errorf("docc terminated by signal %s", status.Signal())
	}
	return fmt.Errorf("docc exited with code %d", exitErr.ExitCode())
}
