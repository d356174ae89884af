package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Integration tests that exercise the full LoadFrom pipeline:
// defaults < YAML < environment variables.

func TestLoadFrom_FullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CATERTRACK_PORT", "7070")
	t.Setenv("CATERTRACK_LOG_LEVEL", "warn")
	t.Setenv("SECRET_KEY", testSecret)

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("env should override yaml port, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override yaml level, got %s", cfg.Logging.Level)
	}
}

func TestLoadFrom_EnvInvalidValues(t *testing.T) {
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("CATERTRACK_PG_MAX_CONNS", "not-a-number")
	t.Setenv("CATERTRACK_BREAKER_TIMEOUT", "forever")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("invalid int env must keep default, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout != Defaults().Breaker.Timeout {
		t.Errorf("invalid duration env must keep default, got %v", cfg.Breaker.Timeout)
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(yamlPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFrom_ValidationAfterOverride(t *testing.T) {
	t.Setenv("SECRET_KEY", "too-short")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected validation error for short secret")
	}
}
