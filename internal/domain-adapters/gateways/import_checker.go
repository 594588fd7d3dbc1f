package gateways

import (
	"context"
	"time"

	"github.com/ochairo/preflight/internal/domain/interfaces"
	"github.com/ochairo/preflight/internal/domain/services"
)

// ImportChecker verifies a library is importable by running the interpreter
type ImportChecker struct {
	executor    *CommandExecutor
	interpreter string
	timeout     time.Duration
	logger      interfaces.Logger
}

// NewImportChecker creates a dependency checker for interpreter
func NewImportChecker(executor *CommandExecutor, interpreter string, logger interfaces.Logger) *ImportChecker {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ImportChecker{
		executor:    executor,
		interpreter: interpreter,
		timeout:     30 * time.Second,
		logger:      logger,
	}
}

// IsImportable runs `<interpreter> -c "import <module>"` and reports success
func (c *ImportChecker) IsImportable(ctx context.Context, module string) bool {
	if err := services.ValidateModuleName(module); err != nil {
		c.logger.Warn("refusing to import invalid module name", interfaces.F("module", module), interfaces.F("error", err))
		return false
	}

	result := c.executor.Execute(ctx, ExecuteConfig{
		Name:        c.interpreter,
		Args:        []string{"-c", "import " + module},
		Timeout:     c.timeout,
		Description: "import " + module,
	})

	if !result.Success {
		c.logger.Info("dependency import failed",
			interfaces.F("module", module),
			interfaces.F("exit_code", result.ExitCode),
			interfaces.F("stderr", result.Stderr),
		)
	}
	return result.Success
}
