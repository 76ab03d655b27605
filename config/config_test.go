package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/qpick/catalog", cfg.CatalogPath)
	assert.Equal(t, 300*time.Millisecond, cfg.CloseDelay)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qpick.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":8080"
locale: ru
close_delay: 150ms
redis_url: redis://localhost:6379/0
`), 0o644))

	t.Setenv("QPICK_ADDR", ":9090")
	t.Setenv("QPICK_DEV", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Equal(t, 150*time.Millisecond, cfg.CloseDelay)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 24*time.Hour, cfg.StateTTL, "unset fields keep defaults")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	cfg := Default()
	env := map[string]string{"QPICK_STATE_TTL": "forever"}
	err := cfg.applyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	assert.ErrorContains(t, err, "QPICK_STATE_TTL")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.CatalogPath = "catalog"
	cfg.SessionSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog_path")
	assert.Contains(t, err.Error(), "session_secret")
}
