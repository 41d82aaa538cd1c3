package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/auth-mcp/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig         `toml:"server"`
	API     APIConfig            `toml:"api"`
	Session SessionConfig        `toml:"session"`
	Logging common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains protocol server settings.
type ServerConfig struct {
	Name          string `toml:"name" env:"AUTH_MCP_SERVER_NAME"`
	MaxConcurrent int    `toml:"max_concurrent" env:"AUTH_MCP_MAX_CONCURRENT"`
}

// APIConfig describes the remote authentication service.
type APIConfig struct {
	BaseURL              string `toml:"base_url" env:"AUTH_API_BASE_URL"`
	TimeoutMS            int    `toml:"timeout_ms" env:"AUTH_API_TIMEOUT"`
	DescriptionURL       string `toml:"description_url" env:"SWAGGER_URL"`
	DescriptionTimeoutMS int    `toml:"description_timeout_ms" env:"AUTH_MCP_DESCRIPTION_TIMEOUT"`
}

// Timeout returns the remote call timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// DescriptionTimeout returns the upper bound for fetching the API description.
func (c APIConfig) DescriptionTimeout() time.Duration {
	return time.Duration(c.DescriptionTimeoutMS) * time.Millisecond
}

// SessionConfig selects where the session record is persisted.
type SessionConfig struct {
	Backend string      `toml:"backend" env:"AUTH_MCP_SESSION_BACKEND"` // "file" or "redis"
	Dir     string      `toml:"dir" env:"AUTH_MCP_SESSION_DIR"`
	Key     string      `toml:"key" env:"AUTH_MCP_SESSION_KEY"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig contains settings for the redis session backend.
type RedisConfig struct {
	Addr      string `toml:"addr" env:"AUTH_MCP_REDIS_ADDR"`
	KeyPrefix string `toml:"key_prefix" env:"AUTH_MCP_REDIS_PREFIX"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// A missing file is not an error.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) error {
	if err := envdecode.Decode(config); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// DEBUG and MCP_DEBUG are the historical toggles; either one enables diagnostics.
	for _, name := range []string{"DEBUG", "MCP_DEBUG"} {
		if v, err := strconv.ParseBool(os.Getenv(name)); err == nil && v {
			config.Logging.Debug = true
		}
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, debug bool, baseURL, descriptionURL, sessionDir string) {
	if debug {
		config.Logging.Debug = true
	}
	if baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if descriptionURL != "" {
		config.API.DescriptionURL = descriptionURL
	}
	if sessionDir != "" {
		config.Session.Dir = sessionDir
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.TimeoutMS <= 0 {
		return fmt.Errorf("api.timeout_ms must be positive, got %d", c.API.TimeoutMS)
	}
	switch c.Session.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("session.backend must be \"file\" or \"redis\", got %q", c.Session.Backend)
	}
	if c.Session.Key == "" {
		return fmt.Errorf("session.key must not be empty")
	}
	return nil
}
