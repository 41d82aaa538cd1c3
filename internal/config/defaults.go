package config

import (
	"os"
	"path/filepath"

	"github.com/bobmcallan/auth-mcp/internal/common"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:          "auth-mcp",
			MaxConcurrent: 4,
		},
		API: APIConfig{
			BaseURL:              "http://localhost:8080",
			TimeoutMS:            5000,
			DescriptionTimeoutMS: 10000,
		},
		Session: SessionConfig{
			Backend: "file",
			Dir:     defaultSessionDir(),
			Key:     "session",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "auth-mcp:",
			},
		},
		Logging: common.LoggingConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultSessionDir resolves the per-user directory holding the session record.
func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".auth-mcp")
	}
	return filepath.Join(dir, "auth-mcp")
}
