// Package yaml provides YAML-based launcher configuration parsing and loading.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/preflight/internal/domain/entities"
	"github.com/ochairo/preflight/internal/domain/services"
)

var sha256Pattern = regexp.MustCompile(`^[A-Fa-f0-9]{64}$`)

// yamlConfig represents the raw YAML structure. Unset fields keep their defaults.
type yamlConfig struct {
	Runtime    yamlRuntime    `yaml:"runtime"`
	Dependency yamlDependency `yaml:"dependency"`
	Health     yamlHealth     `yaml:"health"`
	Target     yamlTarget     `yaml:"target"`
}

type yamlRuntime struct {
	Interpreter       string `yaml:"interpreter"`
	VersionConstraint string `yaml:"version_constraint"`
}

type yamlDependency struct {
	Module         string `yaml:"module"`
	Manifest       string `yaml:"manifest"`
	InstallCommand string `yaml:"install_command"`
	InstallTimeout string `yaml:"install_timeout"`
	Strict         bool   `yaml:"strict"`
	ManifestSHA256 string `yaml:"manifest_sha256"`
	Signature      string `yaml:"signature"`
	Keyring        string `yaml:"keyring"`
}

type yamlHealth struct {
	URL          string   `yaml:"url"`
	URLs         []string `yaml:"urls"`
	Timeout      string   `yaml:"timeout"`
	LobbyCommand string   `yaml:"lobby_command"`
}

type yamlTarget struct {
	Program  string   `yaml:"program"`
	Args     []string `yaml:"args"`
	Direct   bool     `yaml:"direct"`
	Strategy string   `yaml:"strategy"`
}

// ConfigParser parses YAML launcher configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a configuration file into a LaunchConfig. Files ending in
// .json or .jsonc may carry comments and trailing commas.
func (p *ConfigParser) ParseFile(filePath string) (*entities.LaunchConfig, error) {
	//nolint:gosec // G304: filePath is the operator-selected configuration file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json", ".jsonc":
		// Plain JSON decodes as YAML
		data = jsonc.ToJSON(data)
	}

	cfg, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return cfg, nil
}

// Parse parses YAML bytes on top of the default configuration and validates the result
func (p *ConfigParser) Parse(data []byte) (*entities.LaunchConfig, error) {
	var raw yamlConfig

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := entities.DefaultLaunchConfig()

	applyRuntime(&cfg.Runtime, raw.Runtime)
	if err := applyDependency(&cfg.Dependency, raw.Dependency); err != nil {
		return nil, err
	}
	if err := applyHealth(&cfg.Health, raw.Health); err != nil {
		return nil, err
	}
	applyTarget(&cfg.Target, raw.Target)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyRuntime(rc *entities.RuntimeConfig, yr yamlRuntime) {
	if yr.Interpreter != "" {
		rc.Interpreter = yr.Interpreter
	}
	rc.VersionConstraint = yr.VersionConstraint
}

func applyDependency(dc *entities.DependencyConfig, yd yamlDependency) error {
	if yd.Module != "" {
		dc.Module = yd.Module
	}
	if yd.Manifest != "" {
		dc.Manifest = yd.Manifest
	}
	if yd.InstallTimeout != "" {
		d, err := parseDuration("dependency.install_timeout", yd.InstallTimeout)
		if err != nil {
			return err
		}
		dc.InstallTimeout = d
	}
	dc.InstallCommand = yd.InstallCommand
	dc.Strict = yd.Strict
	dc.ManifestSHA256 = yd.ManifestSHA256
	dc.Signature = yd.Signature
	dc.Keyring = yd.Keyring
	return nil
}

func applyHealth(hc *entities.HealthConfig, yh yamlHealth) error {
	switch {
	case len(yh.URLs) > 0 && yh.URL != "":
		return fmt.Errorf("health: set either url or urls, not both")
	case len(yh.URLs) > 0:
		hc.URLs = yh.URLs
	case yh.URL != "":
		hc.URLs = []string{yh.URL}
	}

	if yh.Timeout != "" {
		d, err := parseDuration("health.timeout", yh.Timeout)
		if err != nil {
			return err
		}
		hc.Timeout = d
	}
	if yh.LobbyCommand != "" {
		hc.LobbyCommand = yh.LobbyCommand
	}
	return nil
}

func applyTarget(tc *entities.TargetConfig, yt yamlTarget) {
	if yt.Program != "" {
		tc.Program = yt.Program
	}
	if yt.Strategy != "" {
		tc.Strategy = entities.HandoffStrategy(yt.Strategy)
	}
	tc.Args = yt.Args
	tc.Direct = yt.Direct
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}
	return d, nil
}

// Validate checks a configuration for values the launcher cannot run with
func Validate(cfg *entities.LaunchConfig) error {
	if cfg.Runtime.Interpreter == "" {
		return fmt.Errorf("runtime.interpreter must not be empty")
	}
	if err := services.ValidateVersionConstraint(cfg.Runtime.VersionConstraint); err != nil {
		return fmt.Errorf("runtime.version_constraint: %w", err)
	}

	if cfg.Dependency.Module == "" {
		return fmt.Errorf("dependency.module must not be empty")
	}
	if err := services.ValidateModuleName(cfg.Dependency.Module); err != nil {
		return fmt.Errorf("dependency.module: %w", err)
	}
	if cfg.Dependency.Manifest == "" {
		return fmt.Errorf("dependency.manifest must not be empty")
	}
	if cfg.Dependency.InstallTimeout <= 0 {
		return fmt.Errorf("dependency.install_timeout must be positive")
	}
	if cfg.Dependency.ManifestSHA256 != "" && !sha256Pattern.MatchString(cfg.Dependency.ManifestSHA256) {
		return fmt.Errorf("dependency.manifest_sha256 must be 64 hex characters")
	}
	if cfg.Dependency.Signature != "" && cfg.Dependency.Keyring == "" {
		return fmt.Errorf("dependency.signature requires dependency.keyring")
	}

	if len(cfg.Health.URLs) == 0 {
		return fmt.Errorf("health.urls must list at least one endpoint")
	}
	for _, raw := range cfg.Health.URLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("health.urls: invalid endpoint %q", raw)
		}
	}
	if cfg.Health.Timeout <= 0 {
		return fmt.Errorf("health.timeout must be positive")
	}

	if cfg.Target.Program == "" {
		return fmt.Errorf("target.program must not be empty")
	}
	switch cfg.Target.Strategy {
	case entities.HandoffSpawn, entities.HandoffExec:
	default:
		return fmt.Errorf("target.strategy: unknown strategy %q (want spawn or exec)", cfg.Target.Strategy)
	}

	return nil
}
