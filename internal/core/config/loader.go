package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-07"
	}
	if cfg.Shopify.Timeout == 0 {
		cfg.Shopify.Timeout = 30 * time.Second
	}
	if cfg.Feeds.Interval == 0 {
		cfg.Feeds.Interval = time.Hour
	}
	if len(cfg.Feeds.Formats) == 0 {
		cfg.Feeds.Formats = []string{"google"}
	}
	if cfg.Feeds.Currency == "" {
		cfg.Feeds.Currency = "USD"
	}
	if cfg.Feeds.CacheTTL == 0 {
		cfg.Feeds.CacheTTL = 2 * cfg.Feeds.Interval
	}

	return &cfg, nil
}
