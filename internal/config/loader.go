package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "catertrack.yaml"

// DefaultEnvFile is the dotenv file merged into the process environment by Load.
const DefaultEnvFile = ".env"

const minJWTSecretLen = 32

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// Both the YAML file and the .env file are optional.
func Load() (*Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv merges the dotenv file into the environment. Variables that are
// already set win over the file. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CATERTRACK_PORT")
	setString(&cfg.Server.CORSOrigin, "CATERTRACK_CORS_ORIGIN")
	setInt64(&cfg.Server.BodyLimit, "CATERTRACK_BODY_LIMIT")
	setInt64(&cfg.Server.UploadLimit, "CATERTRACK_UPLOAD_LIMIT")
	setString(&cfg.Server.FrontendURL, "FRONTEND_URL")
	setDuration(&cfg.Server.WriteTimeout, "CATERTRACK_WRITE_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "CATERTRACK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "CATERTRACK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "CATERTRACK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "CATERTRACK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "CATERTRACK_PG_HEALTH_CHECK")

	// Mongo
	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.Database, "MONGO_DB")
	setDuration(&cfg.Mongo.ConnectTimeout, "CATERTRACK_MONGO_CONNECT_TIMEOUT")
	setUint64(&cfg.Mongo.MaxPoolSize, "CATERTRACK_MONGO_MAX_POOL_SIZE")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "CATERTRACK_NATS_STREAM")

	// Auth
	setBool(&cfg.Auth.Enabled, "CATERTRACK_AUTH_ENABLED")
	setString(&cfg.Auth.JWTSecret, "SECRET_KEY")
	setDuration(&cfg.Auth.AccessTokenExpiry, "CATERTRACK_ACCESS_TOKEN_EXPIRY")
	setDuration(&cfg.Auth.ResetTokenExpiry, "CATERTRACK_RESET_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "CATERTRACK_BCRYPT_COST")

	// Email
	setString(&cfg.Email.Host, "EMAIL_HOST")
	setInt(&cfg.Email.Port, "EMAIL_PORT")
	setString(&cfg.Email.User, "EMAIL_USER")
	setString(&cfg.Email.Password, "EMAIL_PASSWORD")
	setString(&cfg.Email.From, "EMAIL_FROM")
	setBool(&cfg.Email.StartTLS, "EMAIL_STARTTLS")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "CATERTRACK_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.L1TTL, "CATERTRACK_CACHE_L1_TTL")
	setString(&cfg.Cache.L2Bucket, "CATERTRACK_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "CATERTRACK_CACHE_L2_TTL")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "CATERTRACK_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "CATERTRACK_IDEMPOTENCY_TTL")

	setString(&cfg.Logging.Level, "CATERTRACK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CATERTRACK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CATERTRACK_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "CATERTRACK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CATERTRACK_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "CATERTRACK_RATE_RPS")
	setInt(&cfg.Rate.Burst, "CATERTRACK_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "CATERTRACK_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "CATERTRACK_RATE_MAX_IDLE_TIME")

	// Ledger
	setDuration(&cfg.Ledger.MutationTimeout, "CATERTRACK_LEDGER_MUTATION_TIMEOUT")
	setInt(&cfg.Ledger.ReconcileParallel, "CATERTRACK_LEDGER_RECONCILE_PARALLEL")
	setBool(&cfg.Ledger.PublishOrderEvents, "CATERTRACK_LEDGER_PUBLISH_EVENTS")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "CATERTRACK_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "CATERTRACK_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setFloat64(&cfg.OTEL.SampleRate, "CATERTRACK_OTEL_SAMPLE_RATE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Mongo.URI == "" {
		return errors.New("mongo.uri is required")
	}
	if cfg.Mongo.Database == "" {
		return errors.New("mongo.database is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.Enabled && len(cfg.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minJWTSecretLen)
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Ledger.ReconcileParallel < 1 {
		return errors.New("ledger.reconcile_parallel must be >= 1")
	}
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint == "" {
		return errors.New("otel.endpoint is required when otel is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
