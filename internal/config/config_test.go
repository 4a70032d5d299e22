package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/lendshare.db")
	t.Setenv("TEST_ENV", "staging")

	path := writeConfig(t, `
app:
  name: lendshare
  environment: ${TEST_ENV}
database:
  path: ${TEST_DB_PATH}
monitoring:
  prometheus_enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, "/tmp/lendshare.db", cfg.Database.Path)

	// Defaults fill everything the file omits.
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ShutdownSec)
	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, "http://localhost:9090", cfg.Gateway.ServerURL)
	assert.Equal(t, float64(10), cfg.Gateway.RateLimit.RPS)
	assert.Equal(t, 20, cfg.Gateway.RateLimit.Burst)
	assert.Equal(t, 300, cfg.Cache.TTLSec)
	assert.Equal(t, 2112, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 7070
  shutdown_timeout: 3
gateway:
  port: 7071
  server_url: http://core:7070
  rate_limit:
    rps: 2.5
    burst: 4
database:
  path: data/app.db
cache:
  ttl: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Server.ShutdownSec)
	assert.Equal(t, "http://core:7070", cfg.Gateway.ServerURL)
	assert.Equal(t, 2.5, cfg.Gateway.RateLimit.RPS)
	assert.Equal(t, 4, cfg.Gateway.RateLimit.Burst)
	assert.Equal(t, 60, cfg.Cache.TTLSec)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [broken"))
		assert.Error(t, err)
	})

	t.Run("missing database path", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: 7070\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path")
	})

	t.Run("redis enabled without address", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database:
  path: data/app.db
redis:
  enabled: true
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis address")
	})
}
