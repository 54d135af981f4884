package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageFS       = "fs"
	StoragePostgres = "postgres"
)

// Sequence backends
const (
	SequenceScan  = "scan"
	SequenceRedis = "redis"
)

// Config holds all configuration for grid-test-engine
type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Generator GeneratorConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Sequence  SequenceConfig
	Redis     RedisConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig holds topic definition settings
type CatalogConfig struct {
	Dir           string
	DefaultTestID string
}

// GeneratorConfig holds test assembly settings
type GeneratorConfig struct {
	TopicsPerTest int
}

// StorageConfig selects where generated tests are persisted
type StorageConfig struct {
	Backend      string
	GeneratedDir string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN         string
	MaxConns    int
	MinConns    int
	MaxLifetime time.Duration
}

// SequenceConfig selects how generated test ordinals are allocated
type SequenceConfig struct {
	Backend string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level slog.Level
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 3000),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
		Catalog: CatalogConfig{
			Dir:           getEnv("DEFINITIONS_DIR", "database/test-definitions"),
			DefaultTestID: getEnv("DEFAULT_TEST_ID", "data-types"),
		},
		Generator: GeneratorConfig{
			TopicsPerTest: getEnvAsInt("TOPICS_PER_TEST", 3),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", StorageFS)),
			GeneratedDir: getEnv("GENERATED_DIR", "database/generated-tests"),
		},
		Database: DatabaseConfig{
			DSN:         getEnv("DATABASE_DSN", ""),
			MaxConns:    getEnvAsInt("DATABASE_MAX_CONNS", 10),
			MinConns:    getEnvAsInt("DATABASE_MIN_CONNS", 0),
			MaxLifetime: getEnvAsDuration("DATABASE_MAX_LIFETIME", 30*time.Minute),
		},
		Sequence: SequenceConfig{
			Backend: strings.ToLower(getEnv("SEQUENCE_BACKEND", SequenceScan)),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Key:      getEnv("REDIS_KEY", "grid-test:generated:seq"),
		},
		Log: LogConfig{
			Level: getEnvAsLogLevel("LOG_LEVEL", slog.LevelInfo),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Catalog.Dir == "" {
		return fmt.Errorf("definitions directory is required")
	}

	if c.Generator.TopicsPerTest < 1 {
		return fmt.Errorf("topics per test must be at least 1, got %d", c.Generator.TopicsPerTest)
	}

	switch c.Storage.Backend {
	case StorageFS:
		if c.Storage.GeneratedDir == "" {
			return fmt.Errorf("generated tests directory is required")
		}
	case StoragePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for postgres storage")
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database min conns must be between 0 and max conns (%d), got %d",
				c.Database.MaxConns, c.Database.MinConns)
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	switch c.Sequence.Backend {
	case SequenceScan:
	case SequenceRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for redis sequence")
		}
	default:
		return fmt.Errorf("unknown sequence backend: %q", c.Sequence.Backend)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getEnvAsLogLevel(key string, defaultValue slog.Level) slog.Level {
	if value, exists := os.LookupEnv(key); exists {
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err == nil {
			return level
		}
	}
	return defaultValue
}
