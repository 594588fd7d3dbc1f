package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ochairo/preflight/internal/domain/entities"
)

func TestConfigLoader_Load_DefaultFileAbsent(t *testing.T) {
	loader := NewConfigLoader(filepath.Join(t.TempDir(), DefaultConfigFile))

	cfg, source, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if source != "" {
		t.Errorf("source = %q, want built-in defaults", source)
	}
	if cfg.Target.Program != entities.DefaultTargetProgram {
		t.Errorf("Target.Program = %q, want %q", cfg.Target.Program, entities.DefaultTargetProgram)
	}
}

func TestConfigLoader_Load_DefaultFilePresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte("health:\n  timeout: 5s\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, source, err := NewConfigLoader(path).Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if source != path {
		t.Errorf("source = %q, want %q", source, path)
	}
	if cfg.Health.Timeout.Seconds() != 5 {
		t.Errorf("Health.Timeout = %v, want 5s", cfg.Health.Timeout)
	}
}

func TestConfigLoader_Load_ExplicitMissing(t *testing.T) {
	loader := NewConfigLoader("")

	_, _, err := loader.Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Error("Load() should fail for an explicit path that does not exist")
	}
}

func TestConfigLoader_Load_ExplicitInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("target:\n  strategy: teleport\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, _, err := NewConfigLoader("").Load(path)
	if err == nil {
		t.Error("Load() should reject an invalid configuration")
	}
}

func TestConfigLoader_Load_JSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preflight.jsonc")
	content := `{
  // lobby cluster
  "health": {
    "urls": [
      "http://localhost:8000/health",
      "http://localhost:8001/health", /* second lobby */
    ],
    "timeout": "2s",
  },
  "target": {"strategy": "exec"},
}
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, _, err := NewConfigLoader("").Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Health.URLs) != 2 || cfg.Health.URLs[1] != "http://localhost:8001/health" {
		t.Errorf("Health.URLs = %v", cfg.Health.URLs)
	}
	if cfg.Health.Timeout.Seconds() != 2 {
		t.Errorf("Health.Timeout = %v, want 2s", cfg.Health.Timeout)
	}
	if cfg.Target.Strategy != entities.HandoffExec {
		t.Errorf("Target.Strategy = %q, want exec", cfg.Target.Strategy)
	}
	if cfg.Dependency.Module != entities.DefaultModule {
		t.Errorf("Dependency.Module = %q, want default", cfg.Dependency.Module)
	}
}
