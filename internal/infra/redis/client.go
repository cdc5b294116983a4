package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the feed cache and webhook deduplication.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func dedupKey(webhookID string) string {
	return fmt.Sprintf("webhook_seen:%s", webhookID)
}

// SetFeed caches a rendered feed body under key with a TTL.
func (c *Client) SetFeed(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, body, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// GetFeed retrieves a cached feed body. Returns found=false on a cache miss.
func (c *Client) GetFeed(ctx context.Context, key string) (body []byte, found bool, err error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get failed: %w", err)
	}
	return val, true, nil
}

// FirstSeen reports whether this is the first time a webhook delivery ID has
// been observed within the TTL window.
func (c *Client) FirstSeen(ctx context.Context, webhookID string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, dedupKey(webhookID), "seen", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}
