package yaml

import (
	"errors"
	"fmt"
	"os"

	"github.com/ochairo/preflight/internal/domain/entities"
)

// DefaultConfigFile is looked up in the working directory when no path is given
const DefaultConfigFile = "preflight.yml"

// ConfigLoader resolves which configuration file applies and loads it
type ConfigLoader struct {
	defaultPath string
	parser      *ConfigParser
}

// NewConfigLoader creates a loader that falls back to defaultPath
func NewConfigLoader(defaultPath string) *ConfigLoader {
	return &ConfigLoader{
		defaultPath: defaultPath,
		parser:      NewConfigParser(),
	}
}

// Load returns the configuration and the path it came from. An explicit path
// must exist; the default path is optional and its absence yields the
// built-in defaults with an empty source.
func (l *ConfigLoader) Load(path string) (*entities.LaunchConfig, string, error) {
	if path != "" {
		cfg, err := l.parser.ParseFile(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	if l.defaultPath == "" {
		return entities.DefaultLaunchConfig(), "", nil
	}

	if _, err := os.Stat(l.defaultPath); errors.Is(err, os.ErrNotExist) {
		return entities.DefaultLaunchConfig(), "", nil
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to stat %s: %w", l.defaultPath, err)
	}

	cfg, err := l.parser.ParseFile(l.defaultPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, l.defaultPath, nil
}
