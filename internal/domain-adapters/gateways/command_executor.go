// Package gateways implements the launcher's step adapters over processes, files and HTTP.
package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ochairo/preflight/internal/domain/interfaces"
)

// CommandExecutor runs short-lived helper commands (version query, import
// check, package installation)
type CommandExecutor struct {
	defaultTimeout time.Duration
	logger         interfaces.Logger
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(logger interfaces.Logger) *CommandExecutor {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &CommandExecutor{
		defaultTimeout: time.Minute,
		logger:         logger,
	}
}

// ExecuteConfig describes one command invocation. Exactly one of Name or
// Script is used: Script runs through /bin/sh -c, Name runs directly with Args.
type ExecuteConfig struct {
	Name        string
	Args        []string
	Script      string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string

	// Stdout and Stderr, when set, receive the output as it is produced
	// in addition to it being captured.
	Stdout io.Writer
	Stderr io.Writer
}

// ExecuteResult contains the result of command execution
type ExecuteResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Execute runs a command with the given configuration
func (ce *CommandExecutor) Execute(ctx context.Context, config ExecuteConfig) *ExecuteResult {
	startTime := time.Now()
	result := &ExecuteResult{}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = ce.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	switch {
	case config.Script != "":
		//nolint:gosec // G204: Script comes from launcher configuration and is validated first
		cmd = exec.CommandContext(execCtx, "/bin/sh", "-c", config.Script)
	case config.Name != "":
		//nolint:gosec // G204: Command and arguments come from launcher configuration
		cmd = exec.CommandContext(execCtx, config.Name, config.Args...)
	default:
		result.Error = fmt.Errorf("no command or script given")
		result.ExitCode = -1
		return result
	}

	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = teeWriter(&stdout, config.Stdout)
	cmd.Stderr = teeWriter(&stderr, config.Stderr)

	ce.logger.Debug("executing command",
		interfaces.F("description", config.Description),
		interfaces.F("argv", describeCommand(config)),
	)

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if execCtx.Err() == context.DeadlineExceeded {
			result.Error = fmt.Errorf("%s timed out after %v", describeCommand(config), timeout)
			result.ExitCode = -1
		} else if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}

		ce.logger.Debug("command failed",
			interfaces.F("description", config.Description),
			interfaces.F("exit_code", result.ExitCode),
			interfaces.F("error", result.Error),
		)
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}

// ValidateScript performs basic validation on a shell script
func (ce *CommandExecutor) ValidateScript(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("script is empty")
	}

	dangerous := []string{
		"rm -rf /",
		"mkfs",
		"dd if=/dev/zero",
		":(){:|:&};:", // fork bomb
	}

	for _, pattern := range dangerous {
		if strings.Contains(script, pattern) {
			return fmt.Errorf("script contains potentially dangerous pattern: %s", pattern)
		}
	}

	return nil
}

func teeWriter(capture *bytes.Buffer, stream io.Writer) io.Writer {
	if stream == nil {
		return capture
	}
	return io.MultiWriter(stream, capture)
}

func describeCommand(config ExecuteConfig) string {
	if config.Script != "" {
		return "/bin/sh -c " + config.Script
	}
	return strings.Join(append([]string{config.Name}, config.Args...), " ")
}
