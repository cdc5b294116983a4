package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/feedhq/feedmanager/internal/infra/storage"
)

// Pruner deletes old feed snapshots and webhook deliveries based on the
// retention policy.
type Pruner struct {
	retention time.Duration
	feeds     storage.FeedRepository
	events    storage.WebhookEventRepository
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(
	retention time.Duration,
	feeds storage.FeedRepository,
	events storage.WebhookEventRepository,
	log *slog.Logger,
) *Pruner {
	if log == nil {
		log = slog.Default()
	}
	return &Pruner{
		retention: retention,
		feeds:     feeds,
		events:    events,
		log:       log,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	if err := p.feeds.DeleteOlderThan(ctx, cutoff); err != nil {
		p.log.Error("Failed to prune old feeds", "error", err)
	}

	if err := p.events.DeleteOlderThan(ctx, cutoff); err != nil {
		p.log.Error("Failed to prune old webhook events", "error", err)
	}
}
