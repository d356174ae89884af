package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("expected max_conns 15, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Auth.AccessTokenExpiry != time.Hour {
		t.Errorf("expected access token expiry 1h, got %v", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Mongo.Database != "catertrack" {
		t.Errorf("expected mongo database catertrack, got %s", cfg.Mongo.Database)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  frontend_url: "https://app.example.com"
postgres:
  max_conns: 20
mongo:
  database: "catering_test"
ledger:
  reconcile_parallel: 8
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.FrontendURL != "https://app.example.com" {
		t.Errorf("unexpected frontend url %s", cfg.Server.FrontendURL)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Mongo.Database != "catering_test" {
		t.Errorf("expected mongo db override, got %s", cfg.Mongo.Database)
	}
	if cfg.Ledger.ReconcileParallel != 8 {
		t.Errorf("expected reconcile_parallel 8, got %d", cfg.Ledger.ReconcileParallel)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CATERTRACK_PORT", "7070")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("SECRET_KEY", testSecret)
	t.Setenv("EMAIL_PORT", "2525")
	t.Setenv("CATERTRACK_MONGO_MAX_POOL_SIZE", "10")
	t.Setenv("CATERTRACK_ACCESS_TOKEN_EXPIRY", "30m")

	cfg := Defaults()
	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Mongo.URI != "mongodb://mongo:27017" {
		t.Errorf("unexpected mongo uri %s", cfg.Mongo.URI)
	}
	if cfg.Auth.JWTSecret != testSecret {
		t.Error("expected SECRET_KEY to populate auth.jwt_secret")
	}
	if cfg.Email.Port != 2525 {
		t.Errorf("expected email port 2525, got %d", cfg.Email.Port)
	}
	if cfg.Mongo.MaxPoolSize != 10 {
		t.Errorf("expected pool size 10, got %d", cfg.Mongo.MaxPoolSize)
	}
	if cfg.Auth.AccessTokenExpiry != 30*time.Minute {
		t.Errorf("expected 30m expiry, got %v", cfg.Auth.AccessTokenExpiry)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "empty DSN",
			modify: func(c *Config) { c.Postgres.DSN = "" },
			errMsg: "postgres.dsn is required",
		},
		{
			name:   "empty mongo URI",
			modify: func(c *Config) { c.Mongo.URI = "" },
			errMsg: "mongo.uri is required",
		},
		{
			name:   "empty NATS URL",
			modify: func(c *Config) { c.NATS.URL = "" },
			errMsg: "nats.url is required",
		},
		{
			name:   "zero max_conns",
			modify: func(c *Config) { c.Postgres.MaxConns = 0 },
			errMsg: "postgres.max_conns must be >= 1",
		},
		{
			name:   "short secret",
			modify: func(c *Config) { c.Auth.JWTSecret = "short" },
			errMsg: "auth.jwt_secret must be at least 32 characters",
		},
		{
			name:   "bcrypt cost",
			modify: func(c *Config) { c.Auth.BcryptCost = 2 },
			errMsg: "auth.bcrypt_cost must be between 4 and 31",
		},
		{
			name:   "zero rate burst",
			modify: func(c *Config) { c.Rate.Burst = 0 },
			errMsg: "rate.burst must be >= 1",
		},
		{
			name:   "otel without endpoint",
			modify: func(c *Config) { c.OTEL.Enabled = true },
			errMsg: "otel.endpoint is required when otel is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Auth.JWTSecret = testSecret
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.JWTSecret = testSecret
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidateAuthDisabledNeedsNoSecret(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.Enabled = false
	if err := validate(&cfg); err != nil {
		t.Errorf("auth disabled should not require a secret, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CATERTRACK_TEST_DOTENV=from-file\nCATERTRACK_TEST_PRESET=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CATERTRACK_TEST_PRESET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("CATERTRACK_TEST_DOTENV") })

	if err := loadDotEnv(envPath); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("CATERTRACK_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected dotenv value, got %q", got)
	}
	if got := os.Getenv("CATERTRACK_TEST_PRESET"); got != "from-env" {
		t.Errorf("existing env must win over dotenv, got %q", got)
	}
}

func TestLoadDotEnvMissing(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("missing dotenv should not error, got %v", err)
	}
}

func TestLoadDotEnvMalformed(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("=novalue\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := loadDotEnv(envPath)
	if err != nil && !strings.Contains(err.Error(), envPath) {
		t.Errorf("error should name the file, got %v", err)
	}
}
