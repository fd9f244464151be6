// Package config loads hsync settings from config files and environment.
//
// Precedence follows viper's usual order: explicit flags (bound by the
// CLI), then environment variables prefixed HSYNC_, then an optional
// .hsync.yaml in the home directory, then built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// DBPath is the coordination store location.
	DBPath string `mapstructure:"db_path"`
	// SessionLogsDir is scanned for project discovery.
	SessionLogsDir string `mapstructure:"session_logs_dir"`
	// LogDir receives rotated daemon logs. Empty logs to stderr.
	LogDir string `mapstructure:"log_dir"`
	// ContentIndex toggles the secondary full-text index for Markdown.
	ContentIndex bool `mapstructure:"content_index"`
	// DashboardAddr is the watch-mode dashboard listen address.
	DashboardAddr string `mapstructure:"dashboard_addr"`
}

// Load reads configuration from ~/.hsync.yaml (if present) and the
// environment. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("db_path", filepath.Join(home, ".hsync", "coordination.db"))
	v.SetDefault("session_logs_dir", filepath.Join(home, ".hsync", "sessions"))
	v.SetDefault("log_dir", "")
	v.SetDefault("content_index", true)
	v.SetDefault("dashboard_addr", "localhost:8080")

	v.SetConfigName(".hsync")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	v.AddConfigPath(".")

	v.SetEnvPrefix("HSYNC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
