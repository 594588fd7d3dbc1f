package gateways

import (
	"context"
	"fmt"
	"io"

	"github.com/ochairo/preflight/internal/domain/entities"
	"github.com/ochairo/preflight/internal/domain/interfaces"
	"github.com/ochairo/preflight/internal/domain/services"
)

// PipInstaller installs a requirements manifest with the interpreter's pip,
// or with a configured install script
type PipInstaller struct {
	executor    *CommandExecutor
	interpreter string
	stdout      io.Writer
	stderr      io.Writer
	logger      interfaces.Logger
}

// NewPipInstaller creates a dependency installer. The installer's own output
// is streamed to stdout and stderr so the operator sees why it failed.
func NewPipInstaller(executor *CommandExecutor, interpreter string, stdout, stderr io.Writer, logger interfaces.Logger) *PipInstaller {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &PipInstaller{
		executor:    executor,
		interpreter: interpreter,
		stdout:      stdout,
		stderr:      stderr,
		logger:      logger,
	}
}

// Install runs the installation once and reports its outcome. It never
// re-checks the dependency afterwards.
func (p *PipInstaller) Install(ctx context.Context, cfg entities.DependencyConfig) *entities.InstallResult {
	result := &entities.InstallResult{Attempted: true}

	// Inspection only: a missing or malformed manifest is left for the
	// install tool to report.
	manifest, err := services.ParseManifestFile(cfg.Manifest)
	if err != nil {
		p.logger.Warn("could not inspect dependency manifest",
			interfaces.F("manifest", cfg.Manifest),
			interfaces.F("error", err),
		)
	} else {
		result.Requirements = len(manifest.Requirements)
	}

	config := ExecuteConfig{
		Timeout:     cfg.InstallTimeout,
		Description: "install dependencies",
		Stdout:      p.stdout,
		Stderr:      p.stderr,
	}

	if cfg.InstallCommand != "" {
		if err := p.executor.ValidateScript(cfg.InstallCommand); err != nil {
			result.Attempted = false
			result.ExitCode = -1
			result.Error = fmt.Errorf("install command rejected: %w", err)
			return result
		}
		config.Script = cfg.InstallCommand
		config.Env = map[string]string{
			"MANIFEST":    cfg.Manifest,
			"INTERPRETER": p.interpreter,
			"MODULE":      cfg.Module,
		}
	} else {
		config.Name = p.interpreter
		config.Args = []string{"-m", "pip", "install", "-r", cfg.Manifest}
	}

	execResult := p.executor.Execute(ctx, config)
	result.Success = execResult.Success
	result.ExitCode = execResult.ExitCode
	result.Duration = execResult.Duration
	if execResult.Error != nil {
		result.Error = fmt.Errorf("dependency installation failed (exit %d): %w", execResult.ExitCode, execResult.Error)
	}

	p.logger.Info("dependency installation finished",
		interfaces.F("success", result.Success),
		interfaces.F("exit_code", result.ExitCode),
		interfaces.F("duration", result.Duration.String()),
	)

	return result
}
