package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBaseURL is the production Schwab API host.
	DefaultAPIBaseURL = "https://api.schwabapi.com"
	// DefaultCallbackURL must match the callback registered for the app.
	DefaultCallbackURL = "https://127.0.0.1"
	// DefaultTimeoutSeconds is the HTTP timeout for API calls.
	DefaultTimeoutSeconds = 30
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "warn"
)

// Config holds the CLI configuration.
type Config struct {
	APIBaseURL     string `yaml:"api_base_url"`
	CallbackURL    string `yaml:"callback_url"`
	DefaultAccount string `yaml:"default_account,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	LogLevel       string `yaml:"log_level"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:     DefaultAPIBaseURL,
		CallbackURL:    DefaultCallbackURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		LogLevel:       DefaultLogLevel,
	}
}

// ConfigDir returns the configuration directory, honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sch")
}

// ConfigPath returns the path of the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads the config at path. A missing file yields the defaults and
// fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes cfg to path with 0600 permissions, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyDefaults fills zero values that an explicit empty entry left behind.
func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.CallbackURL == "" {
		c.CallbackURL = DefaultCallbackURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}
