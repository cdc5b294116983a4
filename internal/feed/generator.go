package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/metrics"
	"github.com/feedhq/feedmanager/internal/infra/storage"
)

// Cache stores rendered feed bodies for fast serving.
type Cache interface {
	SetFeed(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

// ProductSource pulls a shop's current catalog from the platform.
type ProductSource interface {
	FetchProducts(ctx context.Context, shop *domain.Shop) ([]*domain.Product, error)
}

// GeneratorConfig holds feed generation settings.
type GeneratorConfig struct {
	Formats  []domain.FeedFormat
	CacheTTL time.Duration
}

// Generator regenerates the feeds of every active shop. It is the collaborator
// the scheduled task runner invokes once per trigger.
type Generator struct {
	cfg      GeneratorConfig
	shops    storage.ShopRepository
	products storage.ProductRepository
	feeds    storage.FeedRepository
	cache    Cache         // optional
	source   ProductSource // optional
	builder  *Builder
	log      *slog.Logger
}

// NewGenerator creates a feed generator. cache may be nil, in which case feeds
// are served from storage only. source may be nil to build from the stored
// catalog without refreshing it.
func NewGenerator(
	cfg GeneratorConfig,
	shops storage.ShopRepository,
	products storage.ProductRepository,
	feeds storage.FeedRepository,
	cache Cache,
	source ProductSource,
	builder *Builder,
	log *slog.Logger,
) *Generator {
	if len(cfg.Formats) == 0 {
		cfg.Formats = []domain.FeedFormat{domain.FeedFormatGoogle}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		cfg:      cfg,
		shops:    shops,
		products: products,
		feeds:    feeds,
		cache:    cache,
		source:   source,
		builder:  builder,
		log:      log,
	}
}

// GenerateAll regenerates every configured feed for every active shop. The
// first hard failure aborts the run; the caller decides how to report it.
func (g *Generator) GenerateAll(ctx context.Context) error {
	started := time.Now()
	defer func() {
		metrics.FeedGenerationDuration.Observe(time.Since(started).Seconds())
	}()

	shops, err := g.shops.GetActive(ctx)
	if err != nil {
		metrics.FeedGenerationFailures.Inc()
		return fmt.Errorf("failed to load active shops: %w", err)
	}

	for _, shop := range shops {
		if err := g.generateShop(ctx, shop); err != nil {
			metrics.FeedGenerationFailures.Inc()
			return err
		}
	}

	g.log.Info("Feed generation run completed",
		"shops", len(shops),
		"formats", len(g.cfg.Formats),
		"duration", time.Since(started))
	return nil
}

func (g *Generator) generateShop(ctx context.Context, shop *domain.Shop) error {
	g.syncProducts(ctx, shop)

	products, err := g.products.GetByShop(ctx, shop.Domain)
	if err != nil {
		return fmt.Errorf("failed to load products for %s: %w", shop.Domain, err)
	}

	for _, format := range g.cfg.Formats {
		body, count, err := g.builder.Build(shop, format, products)
		if err != nil {
			return fmt.Errorf("failed to build %s feed for %s: %w", format, shop.Domain, err)
		}

		feed := &domain.Feed{
			ID:           uuid.NewString(),
			ShopDomain:   shop.Domain,
			Format:       format,
			ProductCount: count,
			Body:         body,
			GeneratedAt:  time.Now().UTC(),
		}

		if err := g.feeds.Save(ctx, feed); err != nil {
			return fmt.Errorf("failed to save %s feed for %s: %w", format, shop.Domain, err)
		}

		if g.cache != nil {
			key := domain.FeedKey(shop.Domain, format)
			if err := g.cache.SetFeed(ctx, key, body, g.cfg.CacheTTL); err != nil {
				// The cache is an accelerator; storage remains authoritative.
				g.log.Warn("Failed to cache feed", "key", key, "error", err)
			}
		}

		metrics.FeedsGenerated.WithLabelValues(shop.Domain, string(format)).Inc()
		metrics.FeedProducts.WithLabelValues(shop.Domain, string(format)).Set(float64(count))

		g.log.Debug("Feed generated",
			"shop", shop.Domain,
			"format", format,
			"products", count,
			"bytes", len(body))
	}

	return nil
}

// syncProducts refreshes the stored catalog from the platform. A sync failure
// keeps the run going on the stored catalog; webhooks keep it current between
// successful syncs.
func (g *Generator) syncProducts(ctx context.Context, shop *domain.Shop) {
	if g.source == nil || shop.AccessToken == "" {
		return
	}

	fetched, err := g.source.FetchProducts(ctx, shop)
	if err != nil {
		g.log.Warn("Product sync failed, building from stored catalog",
			"shop", shop.Domain, "error", err)
		return
	}
	if err := g.products.UpsertBatch(ctx, fetched); err != nil {
		g.log.Warn("Failed to store synced products",
			"shop", shop.Domain, "error", err)
		return
	}
	g.log.Debug("Product catalog synced", "shop", shop.Domain, "products", len(fetched))
}
