package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"CONFIG_PATH", "PORT", "DATABASE_URL", "APP_ENV"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.Equal(t, "/ws", cfg.WS.Path)
	assert.Equal(t, 15*time.Second, cfg.WS.PingInterval)
	assert.Equal(t, 64, cfg.WS.SendQueue)
	assert.Equal(t, time.Minute, cfg.Postgres.SnapshotInterval)
	assert.Equal(t, "relay", cfg.Logging.Service)
	assert.Equal(t, "std", cfg.Logging.Backend)
	assert.Empty(t, cfg.GRPC.Addr)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, `
http:
  addr: ":9000"
  debug: true
ws:
  pingInterval: 30s
grpc:
  addr: ":9100"
logging:
  backend: zap
  env: prod
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.Debug)
	assert.Equal(t, 30*time.Second, cfg.WS.PingInterval)
	assert.Equal(t, ":9100", cfg.GRPC.Addr)
	assert.Equal(t, "zap", cfg.Logging.Backend)
	assert.Equal(t, "prod", cfg.Logging.Env)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, "http:\n  addr: \":9000\"\n"))
	t.Setenv("PORT", "8095")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/relay")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8095", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://u:p@db:5432/relay", cfg.Postgres.DSN)
}

func TestLoadConfig_ExplicitPathMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, "http: [not, a, map"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_InvalidWSPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, "ws:\n  path: socket\n"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestShippedConfigParses(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", "config.yaml")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9092", cfg.GRPC.Addr)
	assert.Len(t, cfg.HTTP.AllowOrigins, 2)
}
