package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Remote      RemoteConfig      `yaml:"remote"`
	Retention   RetentionConfig   `yaml:"retention"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// StoreConfig holds local leaderboard store configuration
type StoreConfig struct {
	Path string `yaml:"path"`
}

// BoardKeys holds the credential pair for one hosted board
type BoardKeys struct {
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
}

// RemoteConfig holds hosted leaderboard API configuration. The hosted
// service speaks plain HTTP only, so outbound calls can be routed through
// a relay proxy configured here.
type RemoteConfig struct {
	BaseURL      string        `yaml:"base_url"`
	RelayURL     string        `yaml:"relay_url"`
	Timeout      time.Duration `yaml:"timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	AllTimeBoard BoardKeys     `yaml:"alltime_board"`
	DailyBoard   BoardKeys     `yaml:"daily_board"`
}

// RetentionConfig holds daily-board retention sweep configuration
type RetentionConfig struct {
	Interval time.Duration `yaml:"interval"`
	Enabled  bool          `yaml:"enabled"`
}

// LeaderboardConfig holds read-surface configuration
type LeaderboardConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Store defaults
	if c.Store.Path == "" {
		c.Store.Path = "data/leaderboard.json"
	}

	// Remote defaults
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = 5 * time.Second
	}
	if c.Remote.CacheTTL == 0 {
		c.Remote.CacheTTL = 60 * time.Second
	}

	// Retention defaults
	if c.Retention.Interval == 0 {
		c.Retention.Interval = 6 * time.Hour
	}

	// Leaderboard defaults
	if c.Leaderboard.DefaultLimit == 0 {
		c.Leaderboard.DefaultLimit = 10
	}
	if c.Leaderboard.MaxLimit == 0 {
		c.Leaderboard.MaxLimit = 100
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Retention.Enabled = true
	return cfg
}
