// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"time"

	"github.com/ochairo/preflight/internal/domain/entities"
)

// RuntimeInspector queries the language runtime for its identity.
// It never fails: an unanswerable query yields an empty RuntimeInfo.
type RuntimeInspector interface {
	Inspect(ctx context.Context) entities.RuntimeInfo
}

// DependencyChecker reports whether a library can be imported by the runtime
type DependencyChecker interface {
	IsImportable(ctx context.Context, module string) bool
}

// DependencyInstaller installs the packages listed in a dependency manifest
type DependencyInstaller interface {
	Install(ctx context.Context, cfg entities.DependencyConfig) *entities.InstallResult
}

// HealthProber probes one companion-service health endpoint
type HealthProber interface {
	Probe(ctx context.Context, url string, timeout time.Duration) entities.EndpointStatus
}

// Confirmer asks the operator a yes/no question; the default answer is no
type Confirmer interface {
	Confirm(prompt string) bool
}

// ProcessLauncher hands control to the target application and returns its exit status.
// An error means the target could not be started at all.
type ProcessLauncher interface {
	Launch(ctx context.Context, argv []string) (int, error)
}
