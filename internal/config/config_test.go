package config

import (
	"os"
	"path/filepath"
	"testing"
)

// useTestHome points the loader at a throwaway config dir and clears
// any LIFTLOG_* overrides from the ambient environment
func useTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	for _, key := range []string{
		"LIFTLOG_SERVER_URL", "LIFTLOG_DATABASE_PATH", "LIFTLOG_LOG_LEVEL",
		"LIFTLOG_SERVE_HOST", "LIFTLOG_SERVE_PORT",
		"LIFTLOG_SERVE_DATABASE_PATH", "LIFTLOG_SERVE_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	return home
}

func writeConfigFile(t *testing.T, home, content string) {
	t.Helper()

	dir := filepath.Join(home, ".config", "liftlog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	home := useTestHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ServerURL != "http://localhost:4820" {
		t.Errorf("Expected default server URL, got %s", cfg.ServerURL)
	}
	wantDB := filepath.Join(home, ".config", "liftlog", "liftlog.db")
	if cfg.DatabasePath != wantDB {
		t.Errorf("Expected default database path %s, got %s", wantDB, cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %s", cfg.LogLevel)
	}
	if cfg.Serve.Host != "localhost" || cfg.Serve.Port != 4820 {
		t.Errorf("Unexpected serve defaults: %s:%d", cfg.Serve.Host, cfg.Serve.Port)
	}
	if len(cfg.Serve.Tokens) != 0 {
		t.Errorf("Expected no default tokens, got %v", cfg.Serve.Tokens)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := useTestHome(t)
	writeConfigFile(t, home, `
server_url = "https://sync.example.com"
database_path = "/tmp/liftlog-test.db"
log_level = "debug"

[serve]
host = "0.0.0.0"
port = 9000
tokens = ["frida:secret-1", "ole:secret-2"]
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ServerURL != "https://sync.example.com" {
		t.Errorf("Expected file server URL, got %s", cfg.ServerURL)
	}
	if cfg.DatabasePath != "/tmp/liftlog-test.db" {
		t.Errorf("Expected file database path, got %s", cfg.DatabasePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.Serve.Host != "0.0.0.0" || cfg.Serve.Port != 9000 {
		t.Errorf("Unexpected serve config: %s:%d", cfg.Serve.Host, cfg.Serve.Port)
	}
	if len(cfg.Serve.Tokens) != 2 || cfg.Serve.Tokens[0] != "frida:secret-1" {
		t.Errorf("Unexpected tokens: %v", cfg.Serve.Tokens)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := useTestHome(t)
	writeConfigFile(t, home, `
server_url = "https://from-file.example.com"
log_level = "debug"

[serve]
port = 9000
`)

	t.Setenv("LIFTLOG_SERVER_URL", "https://from-env.example.com")
	t.Setenv("LIFTLOG_SERVE_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ServerURL != "https://from-env.example.com" {
		t.Errorf("Expected env server URL to win, got %s", cfg.ServerURL)
	}
	if cfg.Serve.Port != 9100 {
		t.Errorf("Expected env port 9100 to win, got %d", cfg.Serve.Port)
	}
	// Untouched file values survive
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected file log level 'debug', got %s", cfg.LogLevel)
	}
}

func TestServeTokenEnvAppends(t *testing.T) {
	home := useTestHome(t)
	writeConfigFile(t, home, `
[serve]
tokens = ["frida:secret-1"]
`)

	t.Setenv("LIFTLOG_SERVE_TOKEN", "ole:secret-2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Serve.Tokens) != 2 {
		t.Fatalf("Expected 2 tokens, got %v", cfg.Serve.Tokens)
	}
	if cfg.Serve.Tokens[1] != "ole:secret-2" {
		t.Errorf("Expected env token appended, got %v", cfg.Serve.Tokens)
	}
}

func TestInvalidPortEnvFallsBack(t *testing.T) {
	useTestHome(t)
	t.Setenv("LIFTLOG_SERVE_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Serve.Port != 4820 {
		t.Errorf("Expected default port on bad env value, got %d", cfg.Serve.Port)
	}
}

func TestMalformedFileFails(t *testing.T) {
	home := useTestHome(t)
	writeConfigFile(t, home, `server_url = `)

	if _, err := Load(); err == nil {
		t.Error("Expected error for malformed config file")
	}
}
