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

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	v := newViper(t)
	require.NoError(t, Read(v, ""))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "", cfg.API.BaseURL)
	assert.Equal(t, "Tasks", cfg.Calendar.Name)
	assert.Equal(t, filepath.Join(DataDir(), "tomato.db"), cfg.Storage.Path)
}

func TestFileAndEnvOverrides(t *testing.T) {
	v := newViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://sync.example.com/api\n  timeout: 5s\n"), 0o600))
	t.Setenv("TOMATO_LOGGING_LEVEL", "DEBUG")

	require.NoError(t, Read(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://sync.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.API.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.API.BaseURL = "http://localhost:8080"
	assert.NoError(t, cfg.Validate())
}

func TestSave(t *testing.T) {
	v := newViper(t)
	require.NoError(t, Save(v, "", "calendar.name", "Focus"))

	reloaded := viper.New()
	SetDefaults(reloaded)
	require.NoError(t, Read(reloaded, ""))
	cfg, err := Load(reloaded)
	require.NoError(t, err)
	assert.Equal(t, "Focus", cfg.Calendar.Name)
}
