// Package webhook applies platform webhook deliveries to local storage.
package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/metrics"
	"github.com/feedhq/feedmanager/internal/infra/storage"
	"github.com/feedhq/feedmanager/internal/shopify"
)

// Deduper suppresses duplicate deliveries of the same webhook ID.
type Deduper interface {
	FirstSeen(ctx context.Context, webhookID string, ttl time.Duration) (bool, error)
}

// Processor persists deliveries and applies product mutations. HMAC
// verification happens at the HTTP boundary before a delivery reaches it.
type Processor struct {
	events   storage.WebhookEventRepository
	products storage.ProductRepository
	shops    storage.ShopRepository
	dedup    Deduper // optional
	dedupTTL time.Duration
	log      *slog.Logger
}

// NewProcessor creates a webhook processor. dedup may be nil, in which case
// duplicate suppression relies on storage idempotency alone.
func NewProcessor(
	events storage.WebhookEventRepository,
	products storage.ProductRepository,
	shops storage.ShopRepository,
	dedup Deduper,
	log *slog.Logger,
) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		events:   events,
		products: products,
		shops:    shops,
		dedup:    dedup,
		dedupTTL: 24 * time.Hour,
		log:      log,
	}
}

// Handle processes one verified delivery. It returns an error only for
// storage failures; an unparseable payload is recorded against the event and
// swallowed, since the platform would redeliver the same bytes forever.
func (p *Processor) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	metrics.WebhooksReceived.WithLabelValues(string(event.Topic)).Inc()

	if p.dedup != nil && event.ID != "" {
		first, err := p.dedup.FirstSeen(ctx, event.ID, p.dedupTTL)
		if err != nil {
			p.log.Warn("Webhook dedup check failed", "id", event.ID, "error", err)
		} else if !first {
			p.log.Debug("Skipping duplicate webhook delivery", "id", event.ID, "topic", event.Topic)
			return nil
		}
	}

	if err := p.events.Save(ctx, event); err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}

	if err := p.apply(ctx, event); err != nil {
		metrics.WebhookFailures.WithLabelValues(string(event.Topic)).Inc()
		p.log.Error("Failed to apply webhook",
			"id", event.ID,
			"topic", event.Topic,
			"shop", event.ShopDomain,
			"error", err)
		if markErr := p.events.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			return fmt.Errorf("failed to mark webhook event failed: %w", markErr)
		}
		return nil
	}

	if err := p.events.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}

	p.log.Info("Webhook applied", "id", event.ID, "topic", event.Topic, "shop", event.ShopDomain)
	return nil
}

func (p *Processor) apply(ctx context.Context, event *domain.WebhookEvent) error {
	switch event.Topic {
	case domain.TopicProductsCreate, domain.TopicProductsUpdate:
		product, err := shopify.ParseProduct(event.ShopDomain, event.Payload)
		if err != nil {
			return err
		}
		return p.products.Upsert(ctx, product)

	case domain.TopicProductsDelete:
		id, err := shopify.ParseProductID(event.Payload)
		if err != nil {
			return err
		}
		return p.products.Delete(ctx, event.ShopDomain, id)

	case domain.TopicAppUninstalled:
		return p.shops.Deactivate(ctx, event.ShopDomain)

	default:
		return fmt.Errorf("unsupported webhook topic: %s", event.Topic)
	}
}
