package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), cfg)
}

func TestLoadConfig_ParsesSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
sources:
  - type: http
    name: Demo
    base_url: https://example.com/emails
  - id: work
    type: imap
    name: Work
    base_url: imap.example.com:993
    enabled: false
    config:
      username: me@example.com
      mailbox: Archive
display:
  refresh_interval_sec: 0
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 2)

	demo := cfg.Sources[0]
	assert.Equal(t, "config-0", demo.ID)
	assert.True(t, demo.Enabled, "unset enabled defaults to true")
	assert.Equal(t, "https://example.com/emails", demo.BaseURL)

	work := cfg.Sources[1]
	assert.Equal(t, "work", work.ID)
	assert.False(t, work.Enabled)
	assert.Equal(t, "Archive", work.Setting("mailbox", "INBOX"))
	assert.Equal(t, "7", work.Setting("lookback_days", "7"))

	assert.Equal(t, 0, cfg.Display.RefreshIntervalSec)
	assert.Equal(t, 40, cfg.Display.ListWidthPercent)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSec)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [\n"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Display.ListWidthPercent = 35
	cfg.Sources = []SourceConfig{{
		ID: "demo", Type: string(SourceTypeHTTP), Name: "Demo",
		BaseURL: "https://example.com/emails", Enabled: true,
	}}
	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 35, got.Display.ListWidthPercent)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "demo", got.Sources[0].ID)
	assert.Equal(t, "https://example.com/emails", got.Sources[0].BaseURL)
	assert.True(t, got.Sources[0].Enabled)
}
