package config

import (
	"time"

	redisclient "github.com/feedhq/feedmanager/internal/infra/redis"
	"github.com/feedhq/feedmanager/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Shopify  ShopifyConfig      `yaml:"shopify"`
	Feeds    FeedsConfig        `yaml:"feeds"`
	Shops    []ShopConfig       `yaml:"shops"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ShopifyConfig holds Admin API and webhook settings.
type ShopifyConfig struct {
	APIVersion    string        `yaml:"api_version"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Timeout       time.Duration `yaml:"timeout"`
}

// FeedsConfig holds feed generation settings.
type FeedsConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Formats   []string      `yaml:"formats"`
	Currency  string        `yaml:"currency"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	Retention time.Duration `yaml:"retention"` // 0 = infinite
}

// ShopConfig seeds a shop at startup.
type ShopConfig struct {
	Domain      string `yaml:"domain"`
	AccessToken string `yaml:"access_token"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
