package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "mediascout.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
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
	setString(&cfg.Server.Port, "MEDIASCOUT_PORT")
	setString(&cfg.Server.CORSOrigin, "MEDIASCOUT_CORS_ORIGIN")

	setString(&cfg.Logging.Level, "MEDIASCOUT_LOG_LEVEL")
	setString(&cfg.Logging.Format, "MEDIASCOUT_LOG_FORMAT")
	setString(&cfg.Logging.Service, "MEDIASCOUT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "MEDIASCOUT_LOG_ASYNC")

	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.APIKey, "LITELLM_API_KEY")
	setString(&cfg.LiteLLM.Model, "MEDIASCOUT_LLM_MODEL")
	setFloat64(&cfg.LiteLLM.Temperature, "MEDIASCOUT_LLM_TEMPERATURE")
	setInt(&cfg.LiteLLM.MaxIterations, "MEDIASCOUT_LLM_MAX_ITERATIONS")

	// External API keys keep their conventional unprefixed names.
	setString(&cfg.TMDB.APIKey, "TMDB_API_KEY")
	setString(&cfg.TMDB.BaseURL, "MEDIASCOUT_TMDB_BASE_URL")
	setString(&cfg.GoogleBooks.APIKey, "GOOGLE_BOOKS_API_KEY")
	setString(&cfg.GoogleBooks.BaseURL, "MEDIASCOUT_BOOKS_BASE_URL")
	setString(&cfg.Serp.APIKey, "SERP_API_KEY")
	setString(&cfg.Serp.BaseURL, "MEDIASCOUT_SERP_BASE_URL")

	setString(&cfg.Cache.Backend, "MEDIASCOUT_CACHE_BACKEND")
	setString(&cfg.Cache.Dir, "MEDIASCOUT_CACHE_DIR")
	setDuration(&cfg.Cache.Debounce, "MEDIASCOUT_CACHE_DEBOUNCE")
	setInt64(&cfg.Cache.MemoryMaxMB, "MEDIASCOUT_CACHE_MEMORY_MAX_MB")
	setDuration(&cfg.Cache.L1TTL, "MEDIASCOUT_CACHE_L1_TTL")

	setDuration(&cfg.Pipeline.Timeout, "MEDIASCOUT_PIPELINE_TIMEOUT")

	setString(&cfg.Profile.Backend, "MEDIASCOUT_PROFILE_BACKEND")
	setString(&cfg.Profile.Path, "MEDIASCOUT_PROFILE_PATH")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "MEDIASCOUT_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "MEDIASCOUT_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "MEDIASCOUT_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "MEDIASCOUT_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "MEDIASCOUT_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.CacheBucket, "MEDIASCOUT_NATS_CACHE_BUCKET")
	setString(&cfg.NATS.IdempotencyBucket, "MEDIASCOUT_NATS_IDEMPOTENCY_BUCKET")

	setFloat64(&cfg.Rate.RequestsPerSecond, "MEDIASCOUT_RATE_RPS")
	setInt(&cfg.Rate.Burst, "MEDIASCOUT_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "MEDIASCOUT_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "MEDIASCOUT_RATE_MAX_IDLE_TIME")

	setString(&cfg.MCP.Addr, "MEDIASCOUT_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "MEDIASCOUT_MCP_API_KEY")

	setBool(&cfg.Otel.Enabled, "MEDIASCOUT_OTEL_ENABLED")
	setString(&cfg.Otel.Endpoint, "MEDIASCOUT_OTEL_ENDPOINT")
}

// validate checks that required fields are set and enum fields hold known
// values.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.LiteLLM.URL == "" {
		return errors.New("litellm.url is required")
	}
	if cfg.LiteLLM.Model == "" {
		return errors.New("litellm.model is required")
	}
	switch cfg.Cache.Backend {
	case "file", "memory", "nats", "tiered":
	default:
		return fmt.Errorf("cache.backend %q is not one of file|memory|nats|tiered", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend != "memory" && cfg.Cache.Dir == "" {
		return errors.New("cache.dir is required for file-backed caches")
	}
	if cfg.Cache.Backend == "nats" || cfg.Cache.Backend == "tiered" {
		if cfg.NATS.URL == "" {
			return errors.New("nats.url is required for the nats cache backend")
		}
	}
	switch cfg.Profile.Backend {
	case "file":
		if cfg.Profile.Path == "" {
			return errors.New("profile.path is required for the file backend")
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres profile backend")
		}
	default:
		return fmt.Errorf("profile.backend %q is not one of file|postgres", cfg.Profile.Backend)
	}
	if cfg.Pipeline.Timeout <= 0 {
		return errors.New("pipeline.timeout must be positive")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
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
