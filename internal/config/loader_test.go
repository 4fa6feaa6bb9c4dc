package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8080
  mode: debug
database:
  host: localhost
  port: 5432
  user: molsig
  password: secret
  db_name: molsig
redis:
  addr: localhost:6379
kafka:
  brokers: ["localhost:9092"]
  group_id: molsig-fill-workers
  molecule_topic: molsig.molecules
worker:
  concurrency: 4
signature:
  radius: 3
  bit_width: 1024
  use_stereo: true
log:
  level: debug
  format: console
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 3, cfg.Signature.Radius)
	assert.Equal(t, uint32(1024), cfg.Signature.BitWidth)
	assert.True(t, cfg.Signature.UseStereo)
	assert.Equal(t, "console", cfg.Log.Format)

	// Unset sections fall back to defaults.
	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Redis.KeyPrefix)
	assert.Equal(t, DefaultWorkerChunkSize, cfg.Worker.ChunkSize)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "server: [")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	bad := strings.Replace(validConfigYAML, "mode: debug", "mode: prod", 1)
	path := createTempConfigFile(t, bad)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("MOLSIG_DATABASE_HOST", "db.internal")
	t.Setenv("MOLSIG_REDIS_ADDR", "cache.internal:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MOLSIG_DATABASE_PASSWORD", "secret")
	t.Setenv("MOLSIG_SIGNATURE_RADIUS", "4")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 4, cfg.Signature.Radius)
	// Everything else came from defaults.
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() { MustLoad(path) })
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}
