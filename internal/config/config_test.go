package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionwarden/sessionwarden/internal/constants"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "warden")
	t.Setenv(constants.EnvSessionEncryptionKey, testEncryptionKey)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setTestEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, constants.EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, constants.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, constants.DefaultSessionIdleTimeout, cfg.Session.IdleTimeout)
	assert.Equal(t, constants.DefaultTouchInterval, cfg.Session.TouchInterval)
	assert.Equal(t, constants.DefaultSweepInterval, cfg.Session.SweepInterval)
	assert.Equal(t, constants.DefaultSessionLookupTimeout, cfg.Session.LookupTimeout)
	assert.Equal(t, constants.DefaultLivenessCacheMaxEntries, cfg.Session.CacheMaxEntries)
	assert.False(t, cfg.Session.Strict)
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	setTestEnv(t)

	configYAML := `
app:
  environment: testing
  name: warden-test
server:
  port: 9090
session:
  idle_timeout: 10m
  touch_interval: 15s
  sweep_interval: 2m
  strict: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warden-test", cfg.App.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 15*time.Second, cfg.Session.TouchInterval)
	assert.Equal(t, 2*time.Minute, cfg.Session.SweepInterval)
	assert.True(t, cfg.Session.Strict)
	assert.True(t, cfg.App.IsTesting())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	setTestEnv(t)
	t.Setenv("SESSION_IDLE_TIMEOUT", "45m")
	t.Setenv("SESSION_STRICT", "true")

	configYAML := `
session:
  idle_timeout: 10m
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Session.IdleTimeout)
	assert.True(t, cfg.Session.Strict)
}

func TestLoad_MissingEncryptionKeyFails(t *testing.T) {
	t.Setenv("DB_USER", "warden")
	t.Setenv(constants.EnvSessionEncryptionKey, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), constants.EnvSessionEncryptionKey)
}

func TestLoad_ShortEncryptionKeyFails(t *testing.T) {
	t.Setenv("DB_USER", "warden")
	t.Setenv(constants.EnvSessionEncryptionKey, "short-key")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestLoad_InvalidDurationEnvFails(t *testing.T) {
	setTestEnv(t)
	t.Setenv("SESSION_TOUCH_INTERVAL", "not-a-duration")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TOUCH_INTERVAL")
}

func TestLoad_TouchIntervalMustBeBelowIdleTimeout(t *testing.T) {
	setTestEnv(t)
	t.Setenv("SESSION_IDLE_TIMEOUT", "30s")
	t.Setenv("SESSION_TOUCH_INTERVAL", "1m")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "touch_interval")
}

func TestLoad_MissingDatabaseUserFails(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv(constants.EnvSessionEncryptionKey, testEncryptionKey)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database user")
}

func TestConnectionString_Postgres(t *testing.T) {
	dbs := &DatabaseSettings{
		Host:     "localhost",
		Port:     5432,
		User:     "warden",
		Password: "secret",
		Name:     "sessions",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=warden password=secret dbname=sessions sslmode=disable",
		dbs.ConnectionString())
}
