package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithDevSeed(t *testing.T) {
	t.Setenv("REL8_DEV_SEED", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, defaultListen, cfg.Server.Listen)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, SettingsDriverFile, cfg.Settings.Driver)
	assert.Equal(t, "site", cfg.Settings.Namespace)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.Dev.Seed)
}

func TestLoadRequiresBackendURL(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.url")
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel8.yml")
	content := `
server:
  listen: "0.0.0.0:9000"
backend:
  url: "https://backend.example.com/"
  timeout: 3s
ui:
  theme: light
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("REL8_SERVER_LISTEN", "127.0.0.1:9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Listen, "env overrides file")
	assert.Equal(t, "https://backend.example.com", cfg.Backend.URL, "trailing slash trimmed")
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Dev.Seed = true

	t.Run("valid defaults", func(t *testing.T) {
		assert.NoError(t, base.Validate())
	})

	t.Run("unknown theme", func(t *testing.T) {
		cfg := base
		cfg.UI.Theme = "neon"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres needs database url", func(t *testing.T) {
		cfg := base
		cfg.Settings.Driver = SettingsDriverPostgres
		assert.Error(t, cfg.Validate())
		cfg.Settings.DatabaseURL = "postgres://localhost/rel8"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid backend url", func(t *testing.T) {
		cfg := base
		cfg.Dev.Seed = false
		cfg.Backend.URL = "not a url"
		assert.Error(t, cfg.Validate())
	})
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rel8.yml")
	cfg := Default()
	cfg.Backend.URL = "https://backend.example.com"

	require.NoError(t, Write(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Backend.URL, loaded.Backend.URL)
	assert.Equal(t, cfg.Backend.Timeout, loaded.Backend.Timeout)
}
