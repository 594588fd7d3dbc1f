package gateways

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/ochairo/preflight/internal/domain/entities"
	"github.com/ochairo/preflight/internal/domain/interfaces"
	"github.com/ochairo/preflight/internal/domain/interfaces/gateways"
)

// processExecFunc replaces the current process image. Tests override it
// to capture the call instead of actually replacing the test binary.
var processExecFunc = syscall.Exec

// NewProcessLauncher returns the launcher implementing strategy
func NewProcessLauncher(
	strategy entities.HandoffStrategy,
	stdin io.Reader,
	stdout, stderr io.Writer,
	logger interfaces.Logger,
) (gateways.ProcessLauncher, error) {
	switch strategy {
	case entities.HandoffSpawn, "":
		return NewSpawnLauncher(stdin, stdout, stderr, logger), nil
	case entities.HandoffExec:
		return NewExecLauncher(logger), nil
	default:
		return nil, fmt.Errorf("unknown handoff strategy %q", strategy)
	}
}

// SpawnLauncher runs the target as a child process sharing the launcher's
// standard streams and forwards its exit status
type SpawnLauncher struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger interfaces.Logger
}

// NewSpawnLauncher creates a child-process launcher
func NewSpawnLauncher(stdin io.Reader, stdout, stderr io.Writer, logger interfaces.Logger) *SpawnLauncher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &SpawnLauncher{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}
}

// Launch starts argv and blocks until it exits. The returned status is the
// child's exit code, or 128+N when it was killed by signal N.
func (l *SpawnLauncher) Launch(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("empty command")
	}

	//nolint:gosec // G204: Target program comes from launcher configuration
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	// The child owns the terminal now: interrupts reach it directly through
	// the process group, a SIGTERM aimed at the launcher is passed on.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	l.logger.Info("target application started",
		interfaces.F("argv", argv),
		interfaces.F("pid", cmd.Process.Pid),
	)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-signals:
				if sig == syscall.SIGTERM {
					_ = cmd.Process.Signal(sig)
				}
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)

	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, fmt.Errorf("failed waiting for %s: %w", argv[0], err)
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}

// ExecLauncher replaces the launcher process with the target. On success
// Launch never returns; the target's exit status is the process's status.
type ExecLauncher struct {
	lookPath func(string) (string, error)
	environ  func() []string
	logger   interfaces.Logger
}

// NewExecLauncher creates a process-replacing launcher
func NewExecLauncher(logger interfaces.Logger) *ExecLauncher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ExecLauncher{
		lookPath: exec.LookPath,
		environ:  os.Environ,
		logger:   logger,
	}
}

// Launch resolves argv[0] and execs it with the launcher's environment
func (l *ExecLauncher) Launch(_ context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("empty command")
	}

	path, err := l.lookPath(argv[0])
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", argv[0], err)
	}

	l.logger.Info("replacing launcher process", interfaces.F("path", path), interfaces.F("argv", argv))

	if err := processExecFunc(path, argv, l.environ()); err != nil {
		return 0, fmt.Errorf("exec %s: %w", path, err)
	}

	// Only reachable when processExecFunc is replaced in tests
	return 0, nil
}
