// Package util provides configuration loading for Watcher Aquarium.
package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/supporttools/watcher-aquarium/pkg/types"
)

// ErrConfigNotFound indicates the configuration file does not exist.
// A missing configuration is a fatal startup condition with its own exit
// status, so callers need to distinguish it from parse errors.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfig loads configuration from a file (YAML or JSON).
// The file format is determined by extension (.yaml, .yml, .json).
// Environment variables are substituted before parsing, then defaults are
// applied and the result is validated.
func LoadConfig(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Substitute environment variables in raw data BEFORE parsing.
	// This allows env vars to work in non-string fields (e.g. port: ${PORT}).
	data = []byte(os.ExpandEnv(string(data)))

	var config types.Config

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		// Try YAML first, then JSON
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			err = json.Unmarshal(data, &config)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}
