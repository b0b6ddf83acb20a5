package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/unlock"
	"gopkg.in/yaml.v3"
)

// Config represents the complete feature configuration.
type Config struct {
	Actions  []ActionConfig         `yaml:"actions"`
	Features []unlock.FeatureConfig `yaml:"features"`
}

// ActionConfig represents an action configuration entry.
type ActionConfig struct {
	ID         string                 `yaml:"id"`
	Name       string                 `yaml:"name,omitempty"`
	Type       string                 `yaml:"type"`
	Enabled    bool                   `yaml:"enabled"`
	Retry      *action.RetryConfig    `yaml:"retry,omitempty"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty"`
}

// LoadConfig loads feature configuration from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return ParseConfig(data)
}

// ParseConfig parses, defaults and validates a YAML document.
func ParseConfig(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	for i := range config.Features {
		config.Features[i].ApplyDefaults()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration for common errors.
func (c *Config) Validate() error {
	actionIDs := make(map[string]bool)
	for _, a := range c.Actions {
		if a.ID == "" {
			return fmt.Errorf("action with empty ID found")
		}
		if actionIDs[a.ID] {
			return fmt.Errorf("duplicate action ID: %s", a.ID)
		}
		actionIDs[a.ID] = true

		if a.Type == "" {
			return fmt.Errorf("action %s has empty type", a.ID)
		}
	}

	featureIDs := make(map[string]bool)
	for i := range c.Features {
		f := &c.Features[i]
		if err := f.Validate(); err != nil {
			return err
		}
		if featureIDs[f.ID] {
			return fmt.Errorf("duplicate feature ID: %s", f.ID)
		}
		featureIDs[f.ID] = true

		// Validate that all action references in features exist
		for _, b := range f.Bindings() {
			if !actionIDs[b.ActionID] {
				return fmt.Errorf("feature %s references unknown %s action: %s", f.ID, b.Role, b.ActionID)
			}
		}
	}

	return nil
}

// ActionConfigs converts the action entries for the action factory.
func (c *Config) ActionConfigs() []action.ActionConfig {
	result := make([]action.ActionConfig, len(c.Actions))
	for i, ac := range c.Actions {
		result[i] = action.ActionConfig{
			ID:         ac.ID,
			Name:       ac.Name,
			Type:       ac.Type,
			Enabled:    ac.Enabled,
			Retry:      ac.Retry,
			Parameters: ac.Parameters,
		}
	}
	return result
}

// ActionBindings returns the feature roles of every enabled feature.
func (c *Config) ActionBindings() []action.Binding {
	var result []action.Binding
	for _, f := range c.EnabledFeatures() {
		result = append(result, f.Bindings()...)
	}
	return result
}

// EnabledFeatures returns the features that should get a machine.
func (c *Config) EnabledFeatures() []unlock.FeatureConfig {
	var result []unlock.FeatureConfig
	for _, f := range c.Features {
		if f.Enabled {
			result = append(result, f)
		}
	}
	return result
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		// Support ${VAR:default} syntax
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
