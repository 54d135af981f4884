package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "database/test-definitions", cfg.Catalog.Dir)
	assert.Equal(t, "data-types", cfg.Catalog.DefaultTestID)
	assert.Equal(t, 3, cfg.Generator.TopicsPerTest)
	assert.Equal(t, StorageFS, cfg.Storage.Backend)
	assert.Equal(t, "database/generated-tests", cfg.Storage.GeneratedDir)
	assert.Equal(t, SequenceScan, cfg.Sequence.Backend)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, ,http://b.example")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("TOPICS_PER_TEST", "4")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/grid")
	t.Setenv("SEQUENCE_BACKEND", "redis")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 4, cfg.Generator.TopicsPerTest)
	assert.Equal(t, StoragePostgres, cfg.Storage.Backend)
	assert.Equal(t, SequenceRedis, cfg.Sequence.Backend)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "70000"}, "invalid server port"},
		{"zero topics", map[string]string{"TOPICS_PER_TEST": "0"}, "topics per test"},
		{"unknown storage", map[string]string{"STORAGE_BACKEND": "s3"}, "unknown storage backend"},
		{"postgres without dsn", map[string]string{"STORAGE_BACKEND": "postgres"}, "database DSN is required"},
		{"unknown sequence", map[string]string{"SEQUENCE_BACKEND": "etcd"}, "unknown sequence backend"},
		{"redis without address", map[string]string{"SEQUENCE_BACKEND": "redis", "REDIS_ADDRESS": ""}, "redis address is required"},
		{"empty definitions", map[string]string{"DEFINITIONS_DIR": ""}, "definitions directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadDatabasePool(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/grid")
	t.Setenv("DATABASE_MAX_CONNS", "8")
	t.Setenv("DATABASE_MIN_CONNS", "2")
	t.Setenv("DATABASE_MAX_LIFETIME", "10m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Database.MaxConns)
	assert.Equal(t, 2, cfg.Database.MinConns)
	assert.Equal(t, 10*time.Minute, cfg.Database.MaxLifetime)

	t.Setenv("DATABASE_MIN_CONNS", "9")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min conns")
}
