package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds music server configuration
type ServerConfig struct {
	APIBase    string `mapstructure:"api_base"`    // RPC endpoint base URL
	StreamBase string `mapstructure:"stream_base"` // Audio endpoint base; defaults to api_base
	Token      string `mapstructure:"token"`       // Bearer token
	DeviceID   string `mapstructure:"device_id"`   // Generated on first run when empty
}

// CacheConfig holds local cache configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// SyncConfig holds sync behavior configuration
type SyncConfig struct {
	// Mode is "transactional" (default) or "legacy" per-write sync.
	Mode string `mapstructure:"mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Sync: SyncConfig{
			Mode: "transactional",
		},
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "offbeat")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".cache", "offbeat")
	}
}

func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "offbeat", "offbeat.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "offbeat", "offbeat.log")
	}
}

func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "offbeat")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "offbeat")
	}
}

// Load reads configuration from file and environment. A missing device ID
// is generated and written back so the server can attribute queue updates
// to this installation consistently.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("OFFBEAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Server.DeviceID == "" {
		cfg.Server.DeviceID = uuid.NewString()
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to persist device id: %w", err)
		}
	}

	return cfg, nil
}

// Save writes the configuration back to the config file.
func Save(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("server.api_base", cfg.Server.APIBase)
	viper.Set("server.stream_base", cfg.Server.StreamBase)
	viper.Set("server.token", cfg.Server.Token)
	viper.Set("server.device_id", cfg.Server.DeviceID)
	viper.Set("cache.dir", cfg.Cache.Dir)
	viper.Set("sync.mode", cfg.Sync.Mode)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)
	viper.Set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	viper.Set("logging.max_backups", cfg.Logging.MaxBackups)

	return viper.WriteConfigAs(filepath.Join(configPath, "config.yaml"))
}

// workOfflineFile is the sentinel marking the user's explicit offline
// preference. It lives outside the database so startup can honor it before
// the store opens.
func workOfflineFile(cacheDir string) string {
	return filepath.Join(cacheDir, "work-offline")
}

// WorkOffline reports whether the sentinel file exists.
func WorkOffline(cacheDir string) bool {
	_, err := os.Stat(workOfflineFile(cacheDir))
	return err == nil
}

// SetWorkOffline creates or removes the sentinel file.
func SetWorkOffline(cacheDir string, v bool) error {
	path := workOfflineFile(cacheDir)
	if v {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte{'1'}, 0644)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
