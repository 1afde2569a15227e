package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Rules struct {
		URL             string `yaml:"url"`
		RefreshInterval string `yaml:"refresh_interval"`
	} `yaml:"rules"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Listener struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"listener"`

	// RefreshEvery is the parsed form of rules.refresh_interval.
	RefreshEvery time.Duration `yaml:"-"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RULES_URL"); v != "" {
		cfg.Rules.URL = v
	}
	if v := os.Getenv("RULES_REFRESH_INTERVAL"); v != "" {
		cfg.Rules.RefreshInterval = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LISTENER_WEBHOOK_URL"); v != "" {
		cfg.Listener.WebhookURL = v
	}

	// Defaults
	if cfg.Rules.RefreshInterval == "" {
		cfg.Rules.RefreshInterval = "6h"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/banksentinel.db"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}

	cfg.RefreshEvery, err = time.ParseDuration(cfg.Rules.RefreshInterval)
	if err != nil {
		return nil, fmt.Errorf("parse refresh_interval: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Rules.URL == "" {
		return fmt.Errorf("rules.url is required")
	}
	if c.RefreshEvery <= 0 {
		return fmt.Errorf("rules.refresh_interval must be positive")
	}
	return nil
}
