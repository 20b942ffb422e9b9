package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without
	// extension).
	ConfigFileName = "cardscan"

	// EnvPrefix is the prefix for environment variables, e.g.
	// CARDSCAN_SCAN_LANG.
	EnvPrefix = "CARDSCAN"
)

// Loader reads configuration from files, environment variables, and bound
// flags, in ascending precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with its own viper instance.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Viper exposes the underlying instance for cobra flag binding.
func (l *Loader) Viper() *viper.Viper { return l.v }

// ConfigFileUsed returns the path of the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

// Load reads configuration from the search paths and environment. A missing
// config file is not an error; the defaults apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadFile reads configuration from a specific file path.
func (l *Loader) LoadFile(path string) (*Config, error) {
	if path == "" {
		return l.Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not readable: %w", err)
	}

	l.v.SetConfigFile(path)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// SearchPaths returns the directories checked for a config file, in order.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", ConfigFileName))
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	}
	return append(paths, "/etc/"+ConfigFileName)
}

func (l *Loader) addConfigPaths() {
	for _, p := range SearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)

	l.v.SetDefault("scan.lang", defaults.Scan.Lang)
	l.v.SetDefault("scan.enrich", defaults.Scan.Enrich)

	l.v.SetDefault("segment.min_area_ratio", defaults.Segment.MinAreaRatio)
	l.v.SetDefault("segment.max_area_ratio", defaults.Segment.MaxAreaRatio)
	l.v.SetDefault("segment.max_cards", defaults.Segment.MaxCards)

	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.recursive", defaults.Batch.Recursive)
	l.v.SetDefault("batch.show_progress", defaults.Batch.ShowProgress)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)

	l.v.SetDefault("output.format", defaults.Output.Format)
}
