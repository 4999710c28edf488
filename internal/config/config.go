package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	// Sync server configuration
	ServerURL string `toml:"server_url"`

	// Local storage configuration
	DatabasePath string `toml:"database_path"`

	// Logging configuration
	LogLevel string `toml:"log_level"`

	// Reference server configuration (liftlog serve)
	Serve ServeConfig `toml:"serve"`
}

// ServeConfig configures the built-in sync server
type ServeConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	DatabasePath string   `toml:"database_path"`
	Tokens       []string `toml:"tokens"`
}

// Dir returns the directory holding the config file and, by default,
// the local database
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "liftlog"), nil
}

// Load reads configuration from ~/.config/liftlog/config.toml (if present)
// and then applies LIFTLOG_* environment variable overrides. A missing
// config file is not an error: every field has a usable default.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config dir: %w", err)
	}

	cfg := &Config{
		ServerURL:    "http://localhost:4820",
		DatabasePath: filepath.Join(dir, "liftlog.db"),
		LogLevel:     "info",
		Serve: ServeConfig{
			Host:         "localhost",
			Port:         4820,
			DatabasePath: filepath.Join(dir, "server.db"),
		},
	}

	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// Environment overrides win over the file
	cfg.ServerURL = getEnv("LIFTLOG_SERVER_URL", cfg.ServerURL)
	cfg.DatabasePath = getEnv("LIFTLOG_DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = getEnv("LIFTLOG_LOG_LEVEL", cfg.LogLevel)
	cfg.Serve.Host = getEnv("LIFTLOG_SERVE_HOST", cfg.Serve.Host)
	cfg.Serve.Port = getEnvInt("LIFTLOG_SERVE_PORT", cfg.Serve.Port)
	cfg.Serve.DatabasePath = getEnv("LIFTLOG_SERVE_DATABASE_PATH", cfg.Serve.DatabasePath)
	if tok := os.Getenv("LIFTLOG_SERVE_TOKEN"); tok != "" {
		cfg.Serve.Tokens = append(cfg.Serve.Tokens, tok)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
