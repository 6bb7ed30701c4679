// Package config loads the application configuration: where Steam lives,
// where GreenLuma lives, and where this tool keeps its own ledger and
// per-app data folders.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every path the stores and the engine need. Steam and
// GreenLuma paths may legitimately be empty when the user has not
// configured them yet; stores guarded by those paths are skipped with a
// warning instead of failing the whole operation.
type Config struct {
	// SteamPath is the Steam installation root (contains config/ and
	// steamapps/).
	SteamPath string `mapstructure:"steam_path"`
	// GreenLumaPath is the GreenLuma root (contains NormalMode/).
	GreenLumaPath string `mapstructure:"greenluma_path"`
	// DataDir holds one subdirectory per AppID with its .lua declaration
	// and .manifest files.
	DataDir string `mapstructure:"data_dir"`
	// DatabasePath is the SQLite ledger file.
	DatabasePath string `mapstructure:"database_path"`
	// LogLevel selects the zap level: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// LogPath is an optional log file; empty logs to stderr only.
	LogPath string `mapstructure:"log_path"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "supersexysteam")
}

// Load reads configuration from the given file, or from
// <DefaultDir>/config.toml when file is empty. Environment variables
// prefixed SSS_ override file values (SSS_STEAM_PATH and so on). A
// missing config file is not an error; defaults apply.
func Load(file string) (*Config, error) {
	v := viper.New()

	dir := DefaultDir()
	v.SetDefault("steam_path", "")
	v.SetDefault("greenluma_path", "")
	v.SetDefault("data_dir", filepath.Join(dir, "data"))
	v.SetDefault("database_path", filepath.Join(dir, "supersexysteam.db"))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_path", "")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("sss")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if file != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration back to <DefaultDir>/config.toml,
// creating the directory if needed.
func (c *Config) Save() error {
	dir := DefaultDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("steam_path", c.SteamPath)
	v.Set("greenluma_path", c.GreenLumaPath)
	v.Set("data_dir", c.DataDir)
	v.Set("database_path", c.DatabasePath)
	v.Set("log_level", c.LogLevel)
	v.Set("log_path", c.LogPath)

	path := filepath.Join(dir, "config.toml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// HasSteam reports whether a usable Steam installation is configured.
func (c *Config) HasSteam() bool {
	return dirExists(c.SteamPath)
}

// HasGreenLuma reports whether a usable GreenLuma installation is
// configured.
func (c *Config) HasGreenLuma() bool {
	return dirExists(c.GreenLumaPath)
}

// ConfigVDFPath returns Steam's config.vdf location.
func (c *Config) ConfigVDFPath() string {
	return filepath.Join(c.SteamPath, "config", "config.vdf")
}

// AppDataDir returns the per-AppID data folder.
func (c *Config) AppDataDir(appID string) string {
	return filepath.Join(c.DataDir, appID)
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
