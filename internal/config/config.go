// Package config loads the dost-tui configuration file.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Game   GameConfig   `yaml:"game"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	// URL is the backend base URL; http(s) is mapped to ws(s) for the
	// game socket.
	URL string `yaml:"url"`
	// TokenPath overrides where the bearer token is persisted.
	TokenPath string `yaml:"token_path"`
}

type GameConfig struct {
	AutoJoin             bool          `yaml:"auto_join"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: "http://127.0.0.1:8000",
		},
		Game: GameConfig{
			AutoJoin:             true,
			ReconnectBaseDelay:   time.Second,
			MaxReconnectAttempts: 5,
			HandshakeTimeout:     10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
