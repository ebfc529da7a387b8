package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	Logging LoggingConfig `toml:"logging"`
	Tunnel  TunnelConfig  `toml:"tunnel"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          string `toml:"port"`
	Host          string `toml:"host"`
	StaticDir     string `toml:"static_dir"`
	PublicBaseURL string `toml:"public_base_url"` // prefix for media URLs served by this host
	EnableCORS    bool   `toml:"enable_cors"`
	ReadTimeout   int    `toml:"read_timeout_seconds"`
}

// StoreConfig contains profile document store configuration
type StoreConfig struct {
	Path           string `toml:"path"`
	MaxConnections int    `toml:"max_connections"`
}

// StorageConfig contains blob storage configuration
type StorageConfig struct {
	Backend          string `toml:"backend"` // "local" or "s3"
	MediaDir         string `toml:"media_dir"`
	WatchForChanges  bool   `toml:"watch_for_changes"`
	MaxUploadSizeMB  int64  `toml:"max_upload_size_mb"`
	DefaultTrackPath string `toml:"default_track_path"` // served when the profile has no song

	S3 S3Config `toml:"s3"`
}

// S3Config targets an S3-compatible object store for blob uploads
type S3Config struct {
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
	PublicBaseURL string `toml:"public_base_url"`
}

// AuthConfig contains admin authentication configuration
type AuthConfig struct {
	UsersFilePath   string `toml:"users_file_path"`
	SessionDuration string `toml:"session_duration"`
	SecureCookies   bool   `toml:"secure_cookies"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	RequestLogging bool   `toml:"request_logging"`
}

// TunnelConfig contains ngrok tunnel configuration
type TunnelConfig struct {
	Enabled      bool   `toml:"enabled"`
	AuthToken    string `toml:"auth_token"`
	Domain       string `toml:"domain"`
	EnableAuth   bool   `toml:"enable_auth"`
	AuthProvider string `toml:"auth_provider"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			Host:          "0.0.0.0",
			StaticDir:     "./static",
			PublicBaseURL: "",
			EnableCORS:    true,
			ReadTimeout:   30,
		},
		Store: StoreConfig{
			Path:           "./vitrine.db",
			MaxConnections: 5,
		},
		Storage: StorageConfig{
			Backend:          "local",
			MediaDir:         "./media",
			WatchForChanges:  true,
			MaxUploadSizeMB:  25,
			DefaultTrackPath: "/static/audio/default.mp3",
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Auth: AuthConfig{
			UsersFilePath:   "./users.toml",
			SessionDuration: "24h",
			SecureCookies:   false,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			RequestLogging: true,
		},
		Tunnel: TunnelConfig{
			Enabled:      false,
			AuthToken:    "",
			Domain:       "",
			EnableAuth:   false,
			AuthProvider: "google",
		},
	}
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	header := `# Vitrine Configuration
# This file contains all configuration options for the Vitrine bio-link server.
# Edit the values below to customize your server settings.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if c.Store.MaxConnections < 1 {
		return fmt.Errorf("store max connections must be at least 1")
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.MediaDir == "" {
			return fmt.Errorf("media directory cannot be empty for local storage")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty for s3 storage")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region cannot be empty for s3 storage")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be local or s3)", c.Storage.Backend)
	}
	if c.Storage.MaxUploadSizeMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB")
	}

	if c.Auth.UsersFilePath == "" {
		return fmt.Errorf("users file path cannot be empty")
	}
	if c.Auth.SessionDuration == "" {
		return fmt.Errorf("session duration cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}
