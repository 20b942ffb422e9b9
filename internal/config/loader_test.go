package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
scan:
  lang: eng deu
  enrich: false
segment:
  max_cards: 1
server:
  port: 9090
output:
  format: json
`)
	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "eng deu", cfg.Scan.Lang)
	assert.False(t, cfg.Scan.Enrich)
	assert.Equal(t, 1, cfg.Segment.MaxCards)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Output.Format)
	// Untouched sections keep defaults.
	assert.Equal(t, 0.015, cfg.Segment.MinAreaRatio)
}

func TestLoadFileEnvironmentOverride(t *testing.T) {
	t.Setenv("CARDSCAN_SCAN_LANG", "fra")
	path := writeConfig(t, "")
	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fra", cfg.Scan.Lang)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := NewLoader().LoadFile("/nonexistent/cardscan.yaml")
	assert.Error(t, err)
}

func TestLoadFileInvalidValues(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")
	_, err := NewLoader().LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty language", func(c *Config) { c.Scan.Lang = "  " }},
		{"inverted area ratios", func(c *Config) { c.Segment.MaxAreaRatio = 0.01 }},
		{"zero max cards", func(c *Config) { c.Segment.MaxCards = 0 }},
		{"negative workers", func(c *Config) { c.Batch.Workers = -1 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"unknown format", func(c *Config) { c.Output.Format = "pdf" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSearchPaths(t *testing.T) {
	paths := SearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, "/etc/cardscan")
}
