package entities

import "time"

// HandoffStrategy selects how control is transferred to the target application
type HandoffStrategy string

const (
	// HandoffSpawn runs the target as a child process and forwards its exit status
	HandoffSpawn HandoffStrategy = "spawn"
	// HandoffExec replaces the launcher process with the target
	HandoffExec HandoffStrategy = "exec"
)

// Default values used when no configuration file overrides them
const (
	DefaultInterpreter    = "python3"
	DefaultModule         = "openfhe"
	DefaultManifest       = "requirements.txt"
	DefaultHealthURL      = "http://localhost:8000/health"
	DefaultHealthTimeout  = 3 * time.Second
	DefaultInstallTimeout = 15 * time.Minute
	DefaultLobbyCommand   = "python lobby/main.py"
	DefaultTargetProgram  = "app.py"
)

// LaunchConfig is the complete, explicit input of a launcher run
type LaunchConfig struct {
	Runtime    RuntimeConfig
	Dependency DependencyConfig
	Health     HealthConfig
	Target     TargetConfig
}

// RuntimeConfig describes the language runtime the target runs on
type RuntimeConfig struct {
	Interpreter       string
	VersionConstraint string // semver constraint, e.g. ">=3.9"; empty disables the check
}

// DependencyConfig describes the required library and how to remediate its absence
type DependencyConfig struct {
	Module         string
	Manifest       string
	InstallCommand string // optional shell script replacing the pip invocation
	InstallTimeout time.Duration
	Strict         bool
	ManifestSHA256 string
	Signature      string
	Keyring        string // armored key file or http(s) URL of a KEYS file
}

// HealthConfig describes the companion services that must be reachable
type HealthConfig struct {
	URLs         []string
	Timeout      time.Duration
	LobbyCommand string
}

// TargetConfig describes the application control is handed to
type TargetConfig struct {
	Program  string
	Args     []string
	Direct   bool // run Program itself rather than through the interpreter
	Strategy HandoffStrategy
}

// DefaultLaunchConfig returns the configuration used when nothing overrides it
func DefaultLaunchConfig() *LaunchConfig {
	return &LaunchConfig{
		Runtime: RuntimeConfig{
			Interpreter: DefaultInterpreter,
		},
		Dependency: DependencyConfig{
			Module:         DefaultModule,
			Manifest:       DefaultManifest,
			InstallTimeout: DefaultInstallTimeout,
		},
		Health: HealthConfig{
			URLs:         []string{DefaultHealthURL},
			Timeout:      DefaultHealthTimeout,
			LobbyCommand: DefaultLobbyCommand,
		},
		Target: TargetConfig{
			Program:  DefaultTargetProgram,
			Strategy: HandoffSpawn,
		},
	}
}

// Command returns the argv used to start the target application
func (t TargetConfig) Command(interpreter string) []string {
	argv := make([]string, 0, len(t.Args)+2)
	if !t.Direct {
		argv = append(argv, interpreter)
	}
	argv = append(argv, t.Program)
	argv = append(argv, t.Args...)
	return argv
}

// HasIntegrityChecks reports whether the manifest must be verified before installing
func (d DependencyConfig) HasIntegrityChecks() bool {
	return d.ManifestSHA256 != "" || d.Signature != ""
}
