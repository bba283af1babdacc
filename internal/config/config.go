package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Session store backends.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config holds application configuration
type Config struct {
	// Last.fm API credentials and endpoint
	LastFM LastFMConfig

	// Directory holding the session store and scrobble queue
	// Default: ~/.local/share/lastfmkit
	DataDir string

	// Session store backend, "sqlite" or "file"
	SessionStore string

	// Log level: debug, info, warn or error
	LogLevel string
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string // Empty uses the public API
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return load(getConfigDir())
}

func load(configDir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("session_store", StoreSQLite)
	v.SetDefault("log_level", "warn")

	// A missing file is fine; a broken one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// LASTFMKIT_LASTFM_API_KEY overrides lastfm.api_key
	v.SetEnvPrefix("LASTFMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		LastFM: LastFMConfig{
			APIKey:    v.GetString("lastfm.api_key"),
			APISecret: v.GetString("lastfm.api_secret"),
			BaseURL:   v.GetString("lastfm.base_url"),
		},
		DataDir:      v.GetString("data_dir"),
		SessionStore: v.GetString("session_store"),
		LogLevel:     v.GetString("log_level"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionStore {
	case StoreSQLite, StoreFile:
	default:
		return fmt.Errorf("invalid session_store %q: must be %q or %q", c.SessionStore, StoreSQLite, StoreFile)
	}
	return nil
}

// SessionPath returns where the configured session store keeps its data.
func (c *Config) SessionPath() string {
	if c.SessionStore == StoreFile {
		return filepath.Join(c.DataDir, "session.json")
	}
	return filepath.Join(c.DataDir, "session.db")
}

// QueuePath returns the scrobble queue database path.
func (c *Config) QueuePath() string {
	return filepath.Join(c.DataDir, "queue.db")
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "lastfmkit")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "lastfmkit")
}

// Save writes configuration to file
func (c *Config) Save() error {
	return c.saveTo(getConfigDir())
}

func (c *Config) saveTo(configDir string) error {
	v := viper.New()

	configFile := filepath.Join(configDir, "config.yaml")

	v.Set("lastfm.api_key", c.LastFM.APIKey)
	v.Set("lastfm.api_secret", c.LastFM.APISecret)
	if c.LastFM.BaseURL != "" {
		v.Set("lastfm.base_url", c.LastFM.BaseURL)
	}
	v.Set("data_dir", c.DataDir)
	v.Set("session_store", c.SessionStore)
	v.Set("log_level", c.LogLevel)

	// The file holds the API secret.
	if err := v.WriteConfigAs(configFile); err != nil {
		return err
	}
	return os.Chmod(configFile, 0600)
}
