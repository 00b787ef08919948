package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Search  SearchConfig  `mapstructure:"search"`
	Paging  PagingConfig  `mapstructure:"paging"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds library service connection settings
type ServerConfig struct {
	URL     string        `mapstructure:"url"`     // Base URL, e.g. http://localhost:5000/api
	Timeout time.Duration `mapstructure:"timeout"` // Per-request timeout
}

// SessionConfig holds session persistence settings
type SessionConfig struct {
	StorePath string `mapstructure:"store_path"` // bbolt file; empty means memory only
}

// NotifyConfig holds notification lifetimes
type NotifyConfig struct {
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	ErrorTTL   time.Duration `mapstructure:"error_ttl"`
}

// SearchConfig holds debounced search settings
type SearchConfig struct {
	MinLength int           `mapstructure:"min_length"`
	Debounce  time.Duration `mapstructure:"debounce"`
}

// PagingConfig holds list defaults
type PagingConfig struct {
	Limit     int  `mapstructure:"limit"`
	AutoClamp bool `mapstructure:"auto_clamp"` // Step back when the current page empties
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:5000/api",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			StorePath: filepath.Join(defaultDataPath(), "session.db"),
		},
		Notify: NotifyConfig{
			DefaultTTL: 5 * time.Second,
			ErrorTTL:   8 * time.Second,
		},
		Search: SearchConfig{
			MinLength: 3,
			Debounce:  500 * time.Millisecond,
		},
		Paging: PagingConfig{
			Limit:     10,
			AutoClamp: true,
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "stacks.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "stacks")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "stacks")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "stacks")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "stacks")
	}
}

// SearchPaths returns the directories searched for config.yaml
func SearchPaths() []string {
	return []string{defaultConfigPath(), "."}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return Load(viper.New(), SearchPaths()...)
}

// Load reads config.yaml from the given search paths into a fresh Config.
// STACKS_* environment variables override file values.
func Load(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides
	v.SetEnvPrefix("STACKS")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can resolve nested values
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("session.store_path", cfg.Session.StorePath)
	v.SetDefault("notify.default_ttl", cfg.Notify.DefaultTTL)
	v.SetDefault("notify.error_ttl", cfg.Notify.ErrorTTL)
	v.SetDefault("search.min_length", cfg.Search.MinLength)
	v.SetDefault("search.debounce", cfg.Search.Debounce)
	v.SetDefault("paging.limit", cfg.Paging.Limit)
	v.SetDefault("paging.auto_clamp", cfg.Paging.AutoClamp)
	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// SaveConfig writes the configuration to the default config file
func SaveConfig(cfg *Config) error {
	return Save(viper.New(), cfg, defaultConfigPath())
}

// Save writes cfg as config.yaml inside dir
func Save(v *viper.Viper, cfg *Config, dir string) error {
	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("session.store_path", cfg.Session.StorePath)
	v.Set("notify.default_ttl", cfg.Notify.DefaultTTL.String())
	v.Set("notify.error_ttl", cfg.Notify.ErrorTTL.String())
	v.Set("search.min_length", cfg.Search.MinLength)
	v.Set("search.debounce", cfg.Search.Debounce.String())
	v.Set("paging.limit", cfg.Paging.Limit)
	v.Set("paging.auto_clamp", cfg.Paging.AutoClamp)
	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if a server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}
