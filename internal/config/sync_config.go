// Package config reads and writes the list of repositories gitsync keeps in
// sync.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NicabarNimble/go-gitsync/internal/git"
	"github.com/NicabarNimble/go-gitsync/internal/urlutils"
	"gopkg.in/yaml.v3"
)

// Target is one destination kept at a revision of a remote.
type Target struct {
	Destination string `yaml:"destination"`
	URL         string `yaml:"url"`
	Revision    string `yaml:"revision,omitempty"`
}

// SyncConfig represents the configuration for repository synchronization
type SyncConfig struct {
	Backend string   `yaml:"backend"`
	Git     string   `yaml:"git,omitempty"`
	Targets []Target `yaml:"targets,omitempty"`
}

// DefaultConfig provides default configuration values
func DefaultConfig() *SyncConfig {
	return &SyncConfig{
		Backend: git.BackendPlumbing,
		Git:     "git",
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &SyncConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves configuration to a file, creating its directory.
func SaveConfig(cfg *SyncConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeDefaults merges default values for unset fields
func (c *SyncConfig) MergeDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultConfig().Backend
	}
	if c.Git == "" {
		c.Git = DefaultConfig().Git
	}
}

// Validate checks if the configuration is valid
func (c *SyncConfig) Validate() error {
	switch c.Backend {
	case git.BackendCLI, git.BackendPlumbing:
	default:
		return fmt.Errorf("invalid backend %q, expected %q or %q", c.Backend, git.BackendCLI, git.BackendPlumbing)
	}

	seen := make(map[string]int, len(c.Targets))
	for i, t := range c.Targets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid target %d: %w", i+1, err)
		}
		key := filepath.Clean(t.Destination)
		if j, ok := seen[key]; ok {
			return fmt.Errorf("targets %d and %d share destination %s", j+1, i+1, t.Destination)
		}
		seen[key] = i
	}
	return nil
}

// Validate checks that a target names a destination and a parseable URL.
func (t Target) Validate() error {
	if t.Destination == "" {
		return fmt.Errorf("destination cannot be empty")
	}
	if _, err := urlutils.Parse(t.URL); err != nil {
		return fmt.Errorf("url: %w", err)
	}
	return nil
}

// AddTarget adds t, replacing the target with the same destination if any.
func (c *SyncConfig) AddTarget(t Target) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for i := range c.Targets {
		if filepath.Clean(c.Targets[i].Destination) == filepath.Clean(t.Destination) {
			c.Targets[i] = t
			return nil
		}
	}
	c.Targets = append(c.Targets, t)
	return nil
}
