// Package config defines the application configuration and its loader.
package config

import (
	"fmt"
	"strings"
)

// Config is the top-level application configuration.
type Config struct {
	LogLevel string         `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Scan     ScanConfig     `mapstructure:"scan" yaml:"scan" json:"scan"`
	Segment  SegmentConfig  `mapstructure:"segment" yaml:"segment" json:"segment"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch" json:"batch"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
}

// ScanConfig configures recognition and post-processing.
type ScanConfig struct {
	Lang   string `mapstructure:"lang" yaml:"lang" json:"lang"`
	Enrich bool   `mapstructure:"enrich" yaml:"enrich" json:"enrich"`
}

// SegmentConfig configures the card detector thresholds.
type SegmentConfig struct {
	MinAreaRatio float64 `mapstructure:"min_area_ratio" yaml:"min_area_ratio" json:"min_area_ratio"`
	MaxAreaRatio float64 `mapstructure:"max_area_ratio" yaml:"max_area_ratio" json:"max_area_ratio"`
	MaxCards     int     `mapstructure:"max_cards" yaml:"max_cards" json:"max_cards"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Workers      int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive    bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	ShowProgress bool `mapstructure:"show_progress" yaml:"show_progress" json:"show_progress"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
}

// OutputConfig configures CLI output.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Scan: ScanConfig{
			Lang:   "eng",
			Enrich: true,
		},
		Segment: SegmentConfig{
			MinAreaRatio: 0.015,
			MaxAreaRatio: 0.6,
			MaxCards:     3,
		},
		Batch: BatchConfig{
			Workers:      0, // 0 = NumCPU
			Recursive:    false,
			ShowProgress: true,
		},
		Server: ServerConfig{
			Host:        "",
			Port:        8080,
			MaxUploadMB: 10,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validFormats = map[string]bool{"text": true, "json": true, "csv": true, "xlsx": true}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if strings.TrimSpace(c.Scan.Lang) == "" {
		return fmt.Errorf("scan language must not be empty")
	}
	if c.Segment.MinAreaRatio <= 0 || c.Segment.MaxAreaRatio <= c.Segment.MinAreaRatio {
		return fmt.Errorf("invalid segment area ratios: min %.3f max %.3f",
			c.Segment.MinAreaRatio, c.Segment.MaxAreaRatio)
	}
	if c.Segment.MaxCards <= 0 {
		return fmt.Errorf("segment max_cards must be > 0")
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch workers must be >= 0")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server max_upload_mb must be > 0")
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format: %s", c.Output.Format)
	}
	return nil
}
