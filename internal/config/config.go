package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultRestTimeSeconds = 90
	DefaultHistoryLimit    = 100
)

type Config struct {
	Environment string `toml:"environment"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	StorageBackend string `toml:"storage_backend"` // memory | file | sqlite | redis | postgres
	StoragePath    string `toml:"storage_path"`    // dir for file backend, db file for sqlite
	CacheSizeMB    int    `toml:"cache_size_mb"`   // 0 disables the freecache layer
	// redis
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	RedisDB        int    `toml:"redis_db"`
	RedisKeyPrefix string `toml:"redis_key_prefix"`
	RedisPassword  string `toml:"-"`
	// postgres
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresMaxConns int32  `toml:"postgres_max_conns"`
	PostgresPassword string `toml:"-"`
	// workouts
	RestTimeSeconds int `toml:"rest_time_seconds"`
	HistoryLimit    int `toml:"history_limit"`
	// telemetry
	TracingEnabled bool   `toml:"tracing_enabled"`
	MetricsAddr    string `toml:"metrics_addr"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the config section for env,
// with defaults applied and secrets taken from the environment.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()

	if redisPass := os.Getenv("GYMTRACKER_REDIS_PASS"); redisPass != "" {
		cfg.RedisPassword = redisPass
	}
	if pgPass := os.Getenv("GYMTRACKER_POSTGRES_PASS"); pgPass != "" {
		cfg.PostgresPassword = pgPass
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StorageBackend == "" {
		c.StorageBackend = "sqlite"
	}
	if c.StoragePath == "" {
		c.StoragePath = "./data/gymtracker.db"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.RedisKeyPrefix == "" {
		c.RedisKeyPrefix = "gymtracker||"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.RestTimeSeconds <= 0 {
		c.RestTimeSeconds = DefaultRestTimeSeconds
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > DefaultHistoryLimit {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "memory", "file", "sqlite", "redis":
	case "postgres":
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return fmt.Errorf("postgres storage needs postgres_host and postgres_db_name")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
	if c.CacheSizeMB < 0 {
		return fmt.Errorf("cache_size_mb must not be negative")
	}
	return nil
}
