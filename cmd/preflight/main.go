// Package main provides the preflight CLI, which checks that a Python
// application's runtime, dependency and lobby server are in place and then
// hands control to the application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/ochairo/preflight/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/preflight/internal/domain-orchestrators"
	"github.com/ochairo/preflight/internal/domain/entities"
	"github.com/ochairo/preflight/internal/domain/interfaces"
	slogadapter "github.com/ochairo/preflight/internal/external-adapters/slog"
	"github.com/ochairo/preflight/internal/external-adapters/yaml"
)

// exitUsage is returned for bad flags and configuration errors, before any step runs
const exitUsage = 2

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("preflight", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "Path to configuration file (default: "+yaml.DefaultConfigFile+" if present)")
		logLevel    = fs.String("log-level", "warn", "Diagnostic log level: debug, info, warn, error")
		showVersion = fs.Bool("version", false, "Print version and exit")
		showHelp    = fs.BoolP("help", "h", false, "Show help")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout, fs)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr, fs)
		return exitUsage
	}

	if *showHelp {
		printUsage(stdout, fs)
		return 0
	}
	if *showVersion {
		fmt.Fprintf(stdout, "preflight %s\n", version)
		return 0
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected argument: %s\n\n", fs.Arg(0))
		printUsage(stderr, fs)
		return exitUsage
	}

	level, err := slogadapter.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --log-level: %v\n\n", err)
		printUsage(stderr, fs)
		return exitUsage
	}
	logger := slogadapter.NewLogger(stderr, level).
		With(interfaces.F("run_id", uuid.New().String()))

	cfg, source, err := yaml.NewConfigLoader(yaml.DefaultConfigFile).Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
		return exitUsage
	}
	if source == "" {
		source = "built-in defaults"
	}
	logger.Info("configuration loaded", interfaces.F("source", source))

	orch, err := newOrchestrator(cfg, stdin, stdout, stderr, logger)
	if err != nil {
		fmt.Fprintf(stderr, "❌ Configuration error: %v\n", err)
		return exitUsage
	}

	result := orch.Run(ctx)
	switch {
	case result.Error == nil:
	case errors.Is(result.Error, orchestrators.ErrOperatorDeclined):
		fmt.Fprintln(stdout, "❌ Aborted: start the lobby server and try again")
	case errors.Is(result.Error, orchestrators.ErrHandoff):
		fmt.Fprintf(stderr, "❌ %v\n", result.Error)
	default:
		fmt.Fprintf(stderr, "❌ Aborted: %v\n", result.Error)
	}

	logger.Debug("launcher finished",
		interfaces.F("stage", string(result.Stage())),
		interfaces.F("exit_code", result.ExitCode),
	)
	return result.ExitCode
}

// newOrchestrator wires the production gateways for cfg
func newOrchestrator(
	cfg *entities.LaunchConfig,
	stdin io.Reader,
	stdout, stderr io.Writer,
	logger interfaces.Logger,
) (*orchestrators.LaunchOrchestrator, error) {
	launcher, err := gateways.NewProcessLauncher(cfg.Target.Strategy, stdin, stdout, stderr, logger)
	if err != nil {
		return nil, err
	}

	executor := gateways.NewCommandExecutor(logger)
	interpreter := cfg.Runtime.Interpreter

	deps := orchestrators.LaunchOrchestratorDeps{
		Inspector: gateways.NewInterpreterInspector(executor, interpreter),
		Checker:   gateways.NewImportChecker(executor, interpreter, logger),
		Guard:     gateways.NewManifestGuard(),
		Installer: gateways.NewPipInstaller(executor, interpreter, stdout, stderr, logger),
		Prober:    gateways.NewHTTPHealthProber(),
		Confirmer: gateways.NewPromptConfirmer(stdin, stdout),
		Launcher:  launcher,
	}

	return orchestrators.NewLaunchOrchestrator(deps, cfg, stdout, logger), nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `preflight - Check prerequisites, then launch the application

Usage:
  preflight [options]

Runs, in order:
  1. Report the interpreter version
  2. Check the required library is importable, installing the manifest if not
  3. Probe the lobby server health endpoint, asking before continuing without it
  4. Start the application and exit with its status

Options:
%s`, fs.FlagUsages())
}
