package storage

import (
	"context"
	"errors"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")
)

// ShopRepository handles shop storage operations
type ShopRepository interface {
	// Save creates or updates a shop
	Save(ctx context.Context, shop *domain.Shop) error

	// GetByDomain retrieves a shop by its domain
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)

	// GetActive retrieves all active shops
	GetActive(ctx context.Context) ([]*domain.Shop, error)

	// Deactivate marks a shop as inactive (app uninstalled)
	Deactivate(ctx context.Context, shopDomain string) error
}

// ProductRepository handles product storage operations
type ProductRepository interface {
	// Upsert saves a product, replacing an existing one
	Upsert(ctx context.Context, product *domain.Product) error

	// UpsertBatch saves multiple products
	UpsertBatch(ctx context.Context, products []*domain.Product) error

	// Delete removes a product
	Delete(ctx context.Context, shopDomain string, productID uint64) error

	// GetByShop retrieves all products of a shop
	GetByShop(ctx context.Context, shopDomain string) ([]*domain.Product, error)

	// Count returns the number of products stored for a shop
	Count(ctx context.Context, shopDomain string) (int, error)
}

// FeedRepository handles generated feed storage operations
type FeedRepository interface {
	// Save saves a generated feed
	Save(ctx context.Context, feed *domain.Feed) error

	// GetLatest retrieves the newest feed for a shop+format pair
	GetLatest(
		ctx context.Context,
		shopDomain string,
		format domain.FeedFormat,
	) (*domain.Feed, error)

	// GetRecent retrieves the most recently generated feeds
	GetRecent(ctx context.Context, limit int) ([]*domain.Feed, error)

	// DeleteOlderThan deletes feeds generated before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

// WebhookEventRepository handles the webhook delivery log
type WebhookEventRepository interface {
	// Save records a received webhook delivery
	Save(ctx context.Context, event *domain.WebhookEvent) error

	// MarkProcessed marks a delivery as successfully applied
	MarkProcessed(ctx context.Context, id string) error

	// MarkFailed records a processing failure for a delivery
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// GetRecent retrieves the most recent deliveries
	GetRecent(ctx context.Context, limit int) ([]*domain.WebhookEvent, error)

	// DeleteOlderThan deletes deliveries received before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

// TaskRunRepository handles the scheduled task run log
type TaskRunRepository interface {
	// Save records a task run
	Save(ctx context.Context, run *domain.TaskRun) error

	// GetRecent retrieves the most recent task runs
	GetRecent(ctx context.Context, limit int) ([]*domain.TaskRun, error)
}
