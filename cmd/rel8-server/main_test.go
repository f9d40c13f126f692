package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Its-donkey/rel8/internal/config"
	"github.com/Its-donkey/rel8/internal/events"
	"github.com/Its-donkey/rel8/internal/settings"
	"github.com/Its-donkey/rel8/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyServeFlagsOverridesOnlyChangedFlags(t *testing.T) {
	cfg := config.Default()
	cfg.App.Templates = "from-config"

	require.NoError(t, serveCmd.Flags().Set("listen", "0.0.0.0:8080"))
	t.Cleanup(func() {
		serveCmd.Flags().Lookup("listen").Changed = false
		serveFlags.listen = ""
	})

	applyServeFlags(serveCmd, &cfg)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Listen)
	assert.Equal(t, "from-config", cfg.App.Templates)
}

func TestOpenSettingsStore(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Settings.Driver = config.SettingsDriverMemory
	store, closeFn, err := openSettingsStore(ctx, &cfg)
	require.NoError(t, err)
	assert.Nil(t, closeFn)
	assert.IsType(t, &settings.MemoryStore{}, store)

	cfg.Settings.Driver = config.SettingsDriverFile
	cfg.App.Data = t.TempDir()
	store, _, err = openSettingsStore(ctx, &cfg)
	require.NoError(t, err)
	fileStore, ok := store.(*settings.FileStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(cfg.App.Data, "settings.json"), fileStore.Path())
}

func TestOpenEventsDefaultsToNoop(t *testing.T) {
	cfg := config.Default()
	pub, closeFn, err := openEvents(&cfg, logging.Nop())
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, events.Noop{}, pub)
}

func TestOpenEventsEmbedded(t *testing.T) {
	cfg := config.Default()
	cfg.Events.Embedded = true

	pub, closeFn, err := openEvents(&cfg, logging.Nop())
	require.NoError(t, err)
	defer closeFn()

	ev, err := events.New(events.TypeCommunityCreated, "user-1", map[string]string{"id": "c1"})
	require.NoError(t, err)
	assert.NoError(t, pub.Publish(context.Background(), ev))
}

func TestBuildDepsWithSeededBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Dev.Seed = true
	cfg.Settings.Driver = config.SettingsDriverMemory
	cfg.UI.Theme = settings.ThemeLight

	d, err := buildDeps(context.Background(), &cfg, logging.Nop())
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, settings.ThemeLight, d.settings.Theme())
	stats, err := d.backend.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, stats)
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rel8.yml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		configPath = "rel8.yml"
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Dev.Seed)

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, rootCmd.Execute(), "existing file needs --force")
}

func TestNewLoggerWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "rel8.log")

	logger, closeLog, err := newLogger(&cfg)
	require.NoError(t, err)
	logger.Info("server", "hello", nil)
	closeLog()

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}
