package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goprice/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/goprice?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := config.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, "goprice:jobs", cfg.QueueName)
	assert.Equal(t, 1, cfg.WorkerConcurrency)
	assert.True(t, cfg.EmbeddedWorker)
	assert.Equal(t, time.Hour, cfg.TokenExpiry)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/goprice")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DB_TIMEOUT", "750ms")
	t.Setenv("WORKER_CONCURRENCY", "0")
	t.Setenv("EMBEDDED_WORKER", "false")

	cfg, err := config.LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.DBTimeout)
	assert.Equal(t, 1, cfg.WorkerConcurrency)
	assert.False(t, cfg.EmbeddedWorker)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	// t.Setenv restaura o valor original no fim do teste; Unsetenv remove a variável.
	t.Setenv("DATABASE_URL", "unused")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	t.Setenv("JWT_SECRET_KEY", "secret")

	_, err := config.LoadConfig()

	assert.Error(t, err)
}
