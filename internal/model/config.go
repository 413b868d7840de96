package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// SyncConfig holds settings for the email-to-ticket pipeline.
type SyncConfig struct {
	// DefaultProjectID is the project email-derived tickets are filed under.
	DefaultProjectID string `mapstructure:"default_project_id" yaml:"default_project_id"`

	// InsecureTLS disables certificate verification for IMAP/SMTP
	// connections, for self-hosted mail servers with self-signed certs.
	InsecureTLS bool `mapstructure:"insecure_tls" yaml:"insecure_tls"`

	// PollUserID, when set, enables the background poller: the mailbox
	// configured for this user is synced on a fixed interval.
	PollUserID string `mapstructure:"poll_user_id" yaml:"poll_user_id"`

	// PollIntervalSec is the background poll interval in seconds.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Sync   SyncConfig   `mapstructure:"sync" yaml:"sync"`

	// DBPath is the SQLite database file location.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// KeyringService is the service name mailbox secrets are stored under.
	KeyringService string `mapstructure:"keyring_service" yaml:"keyring_service"`

	// Seed controls whether default projects, statuses, and the admin user
	// are created on startup.
	Seed bool `mapstructure:"seed" yaml:"seed"`

	// AuditSize is the capacity of the in-memory audit ring buffer.
	AuditSize int `mapstructure:"audit_size" yaml:"audit_size"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/proflow/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "proflow", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:         ServerConfig{Addr: ":8080"},
		Sync:           SyncConfig{DefaultProjectID: "PROJ-1", InsecureTLS: true, PollIntervalSec: 300},
		DBPath:         "proflow.db",
		KeyringService: "proflow",
		Seed:           true,
		AuditSize:      256,
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("sync.default_project_id", "PROJ-1")
	v.SetDefault("sync.insecure_tls", true)
	v.SetDefault("sync.poll_user_id", "")
	v.SetDefault("sync.poll_interval_sec", 300)
	v.SetDefault("db_path", "proflow.db")
	v.SetDefault("keyring_service", "proflow")
	v.SetDefault("seed", true)
	v.SetDefault("audit_size", 256)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
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

	v.Set("server", cfg.Server)
	v.Set("sync", cfg.Sync)
	v.Set("db_path", cfg.DBPath)
	v.Set("keyring_service", cfg.KeyringService)
	v.Set("seed", cfg.Seed)
	v.Set("audit_size", cfg.AuditSize)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
