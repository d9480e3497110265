package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CURATIME_CONFIG", "API_BASE_URL", "API_TIMEOUT", "LISTEN_ADDR", "DATABASE_URL", "STORAGE_KEY",
	"SESSION_COOKIE", "SESSION_TTL", "PURGE_SCHEDULE", "CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
}

// clearEnv runs the test from an empty directory with every key unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "curatime_sid", cfg.Session.CookieName)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "curatime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://file.example.com/api
  timeout: 5s
server:
  listen_addr: ":9000"
session:
  ttl: 12h
logging:
  level: debug
`), 0o600))

	t.Setenv("CURATIME_CONFIG", path)
	t.Setenv("API_BASE_URL", "https://env.example.com/api")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "@every 1h", cfg.Session.PurgeSchedule)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("LISTEN_ADDR=:7000\n"), 0o600))
	// .env never overrides a variable that is already present, even empty
	require.NoError(t, os.Unsetenv("LISTEN_ADDR"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SESSION_TTL", "forever")
		_, err := Load()
		assert.ErrorContains(t, err, "SESSION_TTL")
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CURATIME_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
}
