package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads agent configuration from a file, detecting the format
// by extension. Supported extensions: .yaml, .yml, .json. Fields absent
// from the file keep their Default values.
func FromFile(path string) (Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Agent{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Agent{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML into an agent configuration.
func FromYAML(data []byte) (Agent, error) {
	a := Default()
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Agent{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Agent{}, fmt.Errorf("validate config: %w", err)
	}
	return a, nil
}

// FromJSON parses JSON into an agent configuration.
func FromJSON(data []byte) (Agent, error) {
	a := Default()
	if err := json.Unmarshal(data, &a); err != nil {
		return Agent{}, fmt.Errorf("parse json: %w", err)
	}
	if err := a.Validate(); err != nil {
		return Agent{}, fmt.Errorf("validate config: %w", err)
	}
	return a, nil
}
