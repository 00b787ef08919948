package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Server.URL, cfg.Server.URL)
	assert.Equal(t, 5*time.Second, cfg.Notify.DefaultTTL)
	assert.Equal(t, 8*time.Second, cfg.Notify.ErrorTTL)
	assert.Equal(t, 3, cfg.Search.MinLength)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.Debounce)
	assert.True(t, cfg.Paging.AutoClamp)
	assert.True(t, cfg.IsConfigured())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  url: https://library.example/api\npaging:\n  limit: 25\n  auto_clamp: false\nsearch:\n  debounce: 250ms\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	cfg, err := Load(viper.New(), dir)
	require.NoError(t, err)

	assert.Equal(t, "https://library.example/api", cfg.Server.URL)
	assert.Equal(t, 25, cfg.Paging.Limit)
	assert.False(t, cfg.Paging.AutoClamp)
	assert.Equal(t, 250*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 3, cfg.Search.MinLength)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STACKS_SERVER_URL", "http://env.example/api")
	t.Setenv("STACKS_NOTIFY_ERROR_TTL", "12s")

	cfg, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://env.example/api", cfg.Server.URL)
	assert.Equal(t, 12*time.Second, cfg.Notify.ErrorTTL)
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Server.URL = "http://saved.example/api"
	cfg.Paging.Limit = 50

	require.NoError(t, Save(viper.New(), cfg, dir))
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	loaded, err := Load(viper.New(), dir)
	require.NoError(t, err)
	assert.Equal(t, "http://saved.example/api", loaded.Server.URL)
	assert.Equal(t, 50, loaded.Paging.Limit)
}
