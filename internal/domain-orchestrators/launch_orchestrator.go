// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/preflight/internal/domain/entities"
	"github.com/ochairo/preflight/internal/domain/interfaces"
	"github.com/ochairo/preflight/internal/domain/interfaces/gateways"
	"github.com/ochairo/preflight/internal/domain/services"
)

// Exit statuses set by the launcher itself rather than the target application
const (
	ExitAborted       = 1
	ExitHandoffFailed = 127
)

var (
	// ErrOperatorDeclined is returned when the operator refuses to continue without the companion service
	ErrOperatorDeclined = errors.New("operator declined to continue")
	// ErrInstallFailed is returned in strict mode when remediation did not make the dependency importable
	ErrInstallFailed = errors.New("dependency installation failed")
	// ErrManifestIntegrity is recorded when the manifest fails its digest or signature check
	ErrManifestIntegrity = errors.New("dependency manifest failed verification")
	// ErrHandoff is returned when the target application could not be started
	ErrHandoff = errors.New("failed to start target application")
)

// LaunchOrchestrator runs the preflight sequence and hands off to the target
type LaunchOrchestrator struct {
	inspector gateways.RuntimeInspector
	checker   gateways.DependencyChecker
	guard     gateways.ManifestGuard
	installer gateways.DependencyInstaller
	prober    gateways.HealthProber
	confirmer gateways.Confirmer
	launcher  gateways.ProcessLauncher
	config    *entities.LaunchConfig
	out       io.Writer
	logger    interfaces.Logger
}

// LaunchOrchestratorDeps holds the step implementations
type LaunchOrchestratorDeps struct {
	Inspector gateways.RuntimeInspector
	Checker   gateways.DependencyChecker
	Guard     gateways.ManifestGuard // optional; only used when integrity checks are configured
	Installer gateways.DependencyInstaller
	Prober    gateways.HealthProber
	Confirmer gateways.Confirmer
	Launcher  gateways.ProcessLauncher
}

// NewLaunchOrchestrator creates a new launch orchestrator. Status lines are written to out.
func NewLaunchOrchestrator(
	deps LaunchOrchestratorDeps,
	config *entities.LaunchConfig,
	out io.Writer,
	logger interfaces.Logger,
) *LaunchOrchestrator {
	if config == nil {
		config = entities.DefaultLaunchConfig()
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &LaunchOrchestrator{
		inspector: deps.Inspector,
		checker:   deps.Checker,
		guard:     deps.Guard,
		installer: deps.Installer,
		prober:    deps.Prober,
		confirmer: deps.Confirmer,
		launcher:  deps.Launcher,
		config:    config,
		out:       out,
		logger:    logger,
	}
}

// Run executes the sequence version -> dependency -> health -> handoff.
// The returned result always carries the exit status the launcher should
// terminate with; its Error is set for every non-launch outcome.
func (o *LaunchOrchestrator) Run(ctx context.Context) *entities.LaunchResult {
	result := &entities.LaunchResult{}
	result.Enter(entities.StageStart)

	// Step 1: Report runtime identity
	o.reportRuntime(ctx, result)
	result.Enter(entities.StageVersionReported)

	// Step 2: Verify required dependency, remediate if missing
	if err := o.ensureDependency(ctx, result); err != nil {
		return o.abort(result, err)
	}
	result.Enter(entities.StageDependencyChecked)

	// Step 3: Probe companion service health, ask the operator on failure
	if err := o.checkHealth(ctx, result); err != nil {
		return o.abort(result, err)
	}
	result.Enter(entities.StageHealthChecked)

	// Step 4: Hand off to the target application
	o.handoff(ctx, result)
	return result
}

func (o *LaunchOrchestrator) reportRuntime(ctx context.Context, result *entities.LaunchResult) {
	info := o.inspector.Inspect(ctx)
	result.Runtime = info

	fmt.Fprintf(o.out, "🔍 Runtime: %s\n", info.Display())

	constraint := o.config.Runtime.VersionConstraint
	if constraint == "" {
		return
	}

	ok, err := services.CheckVersionConstraint(info.Version, constraint)
	switch {
	case err != nil:
		fmt.Fprintf(o.out, "⚠️  Could not check runtime version against %q: %v\n", constraint, err)
	case !ok:
		fmt.Fprintf(o.out, "⚠️  Runtime %s does not satisfy %s\n", info.Version, constraint)
	}
}

func (o *LaunchOrchestrator) ensureDependency(ctx context.Context, result *entities.LaunchResult) error {
	dep := o.config.Dependency

	if o.checker.IsImportable(ctx, dep.Module) {
		result.DependencyPresent = true
		fmt.Fprintf(o.out, "✅ %s is installed\n", dep.Module)
		return nil
	}

	fmt.Fprintf(o.out, "📦 %s not found, installing dependencies from %s...\n", dep.Module, dep.Manifest)

	if dep.HasIntegrityChecks() && o.guard != nil {
		if err := o.guard.VerifyManifest(ctx, dep); err != nil {
			err = fmt.Errorf("%w: %w", ErrManifestIntegrity, err)
			fmt.Fprintf(o.out, "❌ %v\n", err)
			result.Install = &entities.InstallResult{ExitCode: -1, Error: err}
			o.logger.Error("manifest verification failed", interfaces.F("manifest", dep.Manifest), interfaces.F("error", err))
			return o.strictFailure(dep, result.Install)
		}
	}

	install := o.installer.Install(ctx, dep)
	if install == nil {
		install = &entities.InstallResult{}
	}
	result.Install = install

	if install.Requirements > 0 {
		fmt.Fprintf(o.out, "   %d requirements listed in %s\n", install.Requirements, dep.Manifest)
	}
	if !install.Success {
		o.logger.Warn("dependency installation did not succeed",
			interfaces.F("exit_code", install.ExitCode),
			interfaces.F("error", install.Error),
		)
	}

	if !dep.Strict {
		return nil
	}

	if err := o.strictFailure(dep, install); err != nil {
		return err
	}
	if !o.checker.IsImportable(ctx, dep.Module) {
		fmt.Fprintf(o.out, "❌ %s is still not importable after installation\n", dep.Module)
		return fmt.Errorf("%w: %s is still not importable", ErrInstallFailed, dep.Module)
	}
	result.DependencyPresent = true
	fmt.Fprintf(o.out, "✅ %s is installed\n", dep.Module)
	return nil
}

// strictFailure turns an unsuccessful install into an abort when strict mode is on
func (o *LaunchOrchestrator) strictFailure(dep entities.DependencyConfig, install *entities.InstallResult) error {
	if !dep.Strict || install.Success {
		return nil
	}
	fmt.Fprintf(o.out, "❌ Dependency installation failed (exit %d)\n", install.ExitCode)
	if install.Error != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, install.Error)
	}
	return ErrInstallFailed
}

func (o *LaunchOrchestrator) checkHealth(ctx context.Context, result *entities.LaunchResult) error {
	health := o.config.Health
	report := &entities.HealthReport{
		Endpoints: make([]entities.EndpointStatus, len(health.URLs)),
	}

	if len(health.URLs) == 1 {
		report.Endpoints[0] = o.prober.Probe(ctx, health.URLs[0], health.Timeout)
	} else {
		// Several lobbies are probed concurrently; the report keeps the configured order
		g, gCtx := errgroup.WithContext(ctx)
		for i, url := range health.URLs {
			i, url := i, url
			g.Go(func() error {
				report.Endpoints[i] = o.prober.Probe(gCtx, url, health.Timeout)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, status := range report.Endpoints {
		o.logger.Debug("health probe",
			interfaces.F("url", status.URL),
			interfaces.F("healthy", status.Healthy),
			interfaces.F("status_code", status.StatusCode),
			interfaces.F("latency", status.Latency.String()),
		)
	}
	result.Health = report

	if report.Healthy() {
		fmt.Fprintln(o.out, "✅ Lobby server is running")
		return nil
	}

	unreachable := report.Unreachable()
	urls := make([]string, 0, len(unreachable))
	for _, ep := range unreachable {
		urls = append(urls, ep.URL)
		o.logger.Warn("companion service unreachable", interfaces.F("url", ep.URL), interfaces.F("error", ep.Error))
	}

	fmt.Fprintf(o.out, "⚠️  Lobby server is not reachable at %s\n", strings.Join(urls, ", "))
	fmt.Fprintf(o.out, "   Start it first with: %s\n", health.LobbyCommand)

	result.Prompted = true
	result.Confirmed = o.confirmer.Confirm("Continue anyway? (y/N): ")
	if !result.Confirmed {
		return ErrOperatorDeclined
	}

	fmt.Fprintln(o.out, "⚠️  Continuing without the lobby server")
	return nil
}

func (o *LaunchOrchestrator) handoff(ctx context.Context, result *entities.LaunchResult) {
	argv := o.config.Target.Command(o.config.Runtime.Interpreter)
	fmt.Fprintf(o.out, "🚀 Launching %s...\n", o.config.Target.Program)

	code, err := o.launcher.Launch(ctx, argv)
	if err != nil {
		result.Enter(entities.StageAborted)
		result.ExitCode = ExitHandoffFailed
		result.Error = fmt.Errorf("%w: %w", ErrHandoff, err)
		o.logger.Error("handoff failed", interfaces.F("argv", argv), interfaces.F("error", err))
		return
	}

	result.Enter(entities.StageLaunched)
	result.ExitCode = code
}

func (o *LaunchOrchestrator) abort(result *entities.LaunchResult, err error) *entities.LaunchResult {
	result.Enter(entities.StageAborted)
	result.ExitCode = ExitAborted
	result.Error = err
	return result
}
