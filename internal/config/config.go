// Package config loads the rel8 server configuration using Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen    = "127.0.0.1:4173"
	defaultTemplates = "ui/templates"
	defaultAssets    = "ui"
	defaultData      = "data"
	defaultName      = "REL8"
	defaultTheme     = "dark"
	defaultTimeout   = 10 * time.Second

	envPrefix = "REL8"

	SettingsDriverFile     = "file"
	SettingsDriverPostgres = "postgres"
	SettingsDriverMemory   = "memory"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// AppConfig configures server-rendered assets/templates and data locations.
type AppConfig struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Templates string `mapstructure:"templates" yaml:"templates"`
	Assets    string `mapstructure:"assets" yaml:"assets"`
	Data      string `mapstructure:"data" yaml:"data"`
}

// UIConfig holds presentation defaults. Theme seeds the settings store.
type UIConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// BackendConfig points at the remote backend-as-a-service.
type BackendConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SettingsConfig selects the settings store implementation.
type SettingsConfig struct {
	Driver      string `mapstructure:"driver" yaml:"driver"`
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url"`
	// Namespace scopes rows in the shared postgres settings table.
	Namespace   string `mapstructure:"namespace" yaml:"namespace"`
}

// EventsConfig enables NATS event publishing when NATSURL is set, or
// against an in-process server when Embedded is true.
type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url" yaml:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	Embedded      bool   `mapstructure:"embedded" yaml:"embedded"`
}

// LogConfig controls the structured logger. When File is set, entries are
// also written to a rotating file.
type LogConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`
	File      string `mapstructure:"file" yaml:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files" yaml:"max_files"`
}

// DevConfig toggles the in-memory backend with seeded data.
type DevConfig struct {
	Seed bool `mapstructure:"seed" yaml:"seed"`
}

// Config holds all configuration values for the rel8 server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	App      AppConfig      `mapstructure:"app" yaml:"app"`
	UI       UIConfig       `mapstructure:"ui" yaml:"ui"`
	Backend  BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Settings SettingsConfig `mapstructure:"settings" yaml:"settings"`
	Events   EventsConfig   `mapstructure:"events" yaml:"events"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Dev      DevConfig      `mapstructure:"dev" yaml:"dev"`
}

var envKeys = []string{
	"server.listen",
	"app.name",
	"app.templates",
	"app.assets",
	"app.data",
	"ui.theme",
	"backend.url",
	"backend.api_key",
	"backend.timeout",
	"settings.driver",
	"settings.database_url",
	"settings.namespace",
	"events.nats_url",
	"events.subject_prefix",
	"events.embedded",
	"log.level",
	"log.file",
	"log.max_size_mb",
	"log.max_files",
	"dev.seed",
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	return Config{
		Server:   ServerConfig{Listen: defaultListen},
		App:      AppConfig{Name: defaultName, Templates: defaultTemplates, Assets: defaultAssets, Data: defaultData},
		UI:       UIConfig{Theme: defaultTheme},
		Backend:  BackendConfig{Timeout: defaultTimeout},
		Settings: SettingsConfig{Driver: SettingsDriverFile, Namespace: "site"},
		Events:   EventsConfig{SubjectPrefix: "rel8"},
		Log:      LogConfig{Level: "info", MaxSizeMB: 10, MaxFiles: 5},
	}
}

// Load reads configuration with precedence: env vars > config file > defaults.
// A missing file at path is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("server.listen", def.Server.Listen)
	v.SetDefault("app.name", def.App.Name)
	v.SetDefault("app.templates", def.App.Templates)
	v.SetDefault("app.assets", def.App.Assets)
	v.SetDefault("app.data", def.App.Data)
	v.SetDefault("ui.theme", def.UI.Theme)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout", def.Backend.Timeout)
	v.SetDefault("settings.driver", def.Settings.Driver)
	v.SetDefault("settings.database_url", "")
	v.SetDefault("settings.namespace", def.Settings.Namespace)
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", def.Events.SubjectPrefix)
	v.SetDefault("events.embedded", false)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_files", def.Log.MaxFiles)
	v.SetDefault("dev.seed", false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	if path != "" && fileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Server.Listen = strings.TrimSpace(c.Server.Listen)
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	c.Backend.URL = strings.TrimSuffix(strings.TrimSpace(c.Backend.URL), "/")
	c.Settings.Driver = strings.ToLower(strings.TrimSpace(c.Settings.Driver))
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = defaultTimeout
	}
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("config: server.listen is required")
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("config: ui.theme must be dark or light, got %q", c.UI.Theme)
	}
	if !c.Dev.Seed {
		if c.Backend.URL == "" {
			return fmt.Errorf("config: backend.url is required unless dev.seed is enabled")
		}
		u, err := url.Parse(c.Backend.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: invalid backend.url %q", c.Backend.URL)
		}
	}
	switch c.Settings.Driver {
	case SettingsDriverFile, SettingsDriverMemory:
	case SettingsDriverPostgres:
		if strings.TrimSpace(c.Settings.DatabaseURL) == "" {
			return fmt.Errorf("config: settings.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown settings.driver %q", c.Settings.Driver)
	}
	return nil
}

// Write marshals cfg to YAML at path, creating parent directories.
func Write(cfg Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
