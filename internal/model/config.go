package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SourceType identifies the kind of message source.
type SourceType string

const (
	SourceTypeHTTP SourceType = "http"
	SourceTypeIMAP SourceType = "imap"
)

// SourceConfig holds the configuration for a single message source.
type SourceConfig struct {
	// ID is the unique identifier for this source instance.
	ID string `mapstructure:"id" yaml:"id"`

	// Type identifies the source kind ("http" or "imap").
	Type string `mapstructure:"type" yaml:"type"`

	// Name is the user-defined label for this source instance.
	Name string `mapstructure:"name" yaml:"name"`

	// BaseURL is the JSON endpoint for http sources, or host:port for imap.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Enabled controls whether this source is fetched.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Config holds source-specific key-value settings
	// (e.g. imap username, mailbox, lookback days).
	Config map[string]string `mapstructure:"config" yaml:"config"`
}

// Setting returns a source-specific setting or fallback when unset.
func (c SourceConfig) Setting(key, fallback string) string {
	if c.Config == nil {
		return fallback
	}
	if v, ok := c.Config[key]; ok && v != "" {
		return v
	}
	return fallback
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	// RefreshIntervalSec is how often the inbox is refetched. 0 disables
	// periodic refresh; the inbox is then loaded at startup and on demand.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`

	// ListWidthPercent is the share of the terminal width given to the
	// message list. Clamped to 30..50.
	ListWidthPercent int `mapstructure:"list_width_percent" yaml:"list_width_percent"`
}

// FetchConfig controls the fetch boundary.
type FetchConfig struct {
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Sources []SourceConfig `mapstructure:"sources" yaml:"sources"`
	Display DisplayConfig  `mapstructure:"display" yaml:"display"`
	Fetch   FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Log     LogConfig      `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/inbox, or "." when the home directory
// cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "inbox")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/inbox/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Sources: []SourceConfig{},
		Display: DisplayConfig{
			RefreshIntervalSec: 300,
			ListWidthPercent:   40,
		},
		Fetch: FetchConfig{
			TimeoutSec: 30,
		},
		Log: LogConfig{
			Level:      "info",
			File:       filepath.Join(ConfigDir(), "inbox.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("INBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("display.refresh_interval_sec", def.Display.RefreshIntervalSec)
	v.SetDefault("display.list_width_percent", def.Display.ListWidthPercent)
	v.SetDefault("fetch.timeout_sec", def.Fetch.TimeoutSec)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	rawSources, _ := v.Get("sources").([]any)
	for i := range cfg.Sources {
		if cfg.Sources[i].ID == "" {
			cfg.Sources[i].ID = fmt.Sprintf("config-%d", i)
		}
		// A missing bool unmarshals as false; an unset enabled means true.
		if !cfg.Sources[i].Enabled && !hasKey(rawSources, i, "enabled") {
			cfg.Sources[i].Enabled = true
		}
	}

	return cfg, nil
}

func hasKey(items []any, i int, key string) bool {
	if i >= len(items) {
		return false
	}
	m, ok := items[i].(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[key]
	return ok
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("sources", cfg.Sources)
	v.Set("display", cfg.Display)
	v.Set("fetch", cfg.Fetch)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
