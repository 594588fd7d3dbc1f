package gateways

import (
	"context"
	"strings"
	"time"

	"github.com/ochairo/preflight/internal/domain/entities"
	"github.com/ochairo/preflight/internal/domain/services"
)

// InterpreterInspector asks the interpreter for its version banner
type InterpreterInspector struct {
	executor    *CommandExecutor
	interpreter string
	timeout     time.Duration
}

// NewInterpreterInspector creates a runtime inspector for interpreter
func NewInterpreterInspector(executor *CommandExecutor, interpreter string) *InterpreterInspector {
	return &InterpreterInspector{
		executor:    executor,
		interpreter: interpreter,
		timeout:     10 * time.Second,
	}
}

// Inspect runs "<interpreter> --version". Any failure yields an empty version.
func (i *InterpreterInspector) Inspect(ctx context.Context) entities.RuntimeInfo {
	info := entities.RuntimeInfo{Interpreter: i.interpreter}

	result := i.executor.Execute(ctx, ExecuteConfig{
		Name:        i.interpreter,
		Args:        []string{"--version"},
		Timeout:     i.timeout,
		Description: "runtime version",
	})
	if !result.Success {
		return info
	}

	// Older interpreters print the banner on stderr
	raw := strings.TrimSpace(result.Stdout)
	if raw == "" {
		raw = strings.TrimSpace(result.Stderr)
	}
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}

	info.Raw = raw
	info.Version = services.ExtractRuntimeVersion(raw)
	return info
}
