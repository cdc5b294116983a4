package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/storage"
)

// Pinger checks reachability of an infrastructure dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor aggregates health status from storage, cache, and feed freshness.
// A shop is degraded when its newest feed is older than twice the generation
// interval and critical at six times.
type Monitor struct {
	shops      storage.ShopRepository
	feeds      storage.FeedRepository
	products   storage.ProductRepository
	formats    []domain.FeedFormat
	interval   time.Duration
	db         Pinger // optional
	cache      Pinger // optional
	lastCheck  time.Time
	lastReport *Report
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(
	shops storage.ShopRepository,
	feeds storage.FeedRepository,
	products storage.ProductRepository,
	formats []domain.FeedFormat,
	interval time.Duration,
	db Pinger,
	cache Pinger,
) *Monitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Monitor{
		shops:    shops,
		feeds:    feeds,
		products: products,
		formats:  formats,
		interval: interval,
		db:       db,
		cache:    cache,
	}
}

// CheckHealth performs a health check across all active shops.
func (m *Monitor) CheckHealth(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering storage from probes
	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport != nil {
		return m.lastReport
	}

	report := &Report{
		SystemStatus: StatusHealthy,
		Storage:      StatusHealthy,
		Cache:        StatusHealthy,
		Shops:        make(map[string]ShopHealth),
	}

	if m.db != nil {
		if err := m.db.Ping(ctx); err != nil {
			report.Storage = StatusCritical
		}
	}
	if m.cache != nil {
		if err := m.cache.Ping(ctx); err != nil {
			// Feeds still serve from storage without the cache.
			report.Cache = StatusDegraded
		}
	}

	shops, err := m.shops.GetActive(ctx)
	if err != nil {
		report.Storage = StatusCritical
	}

	for _, shop := range shops {
		report.Shops[shop.Domain] = m.checkShop(ctx, shop)
	}

	report.SystemStatus = aggregate(report)

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func (m *Monitor) checkShop(ctx context.Context, shop *domain.Shop) ShopHealth {
	health := ShopHealth{
		ShopDomain: shop.Domain,
		Status:     StatusHealthy,
	}

	if count, err := m.products.Count(ctx, shop.Domain); err == nil {
		health.Products = count
	}

	var newest time.Time
	for _, format := range m.formats {
		feed, err := m.feeds.GetLatest(ctx, shop.Domain, format)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			health.Status = StatusDegraded
			continue
		}
		if feed.GeneratedAt.After(newest) {
			newest = feed.GeneratedAt
		}
	}

	if newest.IsZero() {
		// No feed generated yet for any format.
		health.Status = StatusDegraded
		return health
	}

	age := time.Since(newest)
	health.FeedAgeSeconds = int64(age.Seconds())

	if age > 6*m.interval {
		health.Status = StatusCritical
	} else if age > 2*m.interval {
		health.Status = StatusDegraded
	}

	return health
}

func aggregate(report *Report) SystemStatus {
	status := StatusHealthy
	bump := func(s SystemStatus) {
		if s == StatusCritical {
			status = StatusCritical
		}
		if s == StatusDegraded && status == StatusHealthy {
			status = StatusDegraded
		}
	}

	bump(report.Storage)
	bump(report.Cache)
	for _, shop := range report.Shops {
		bump(shop.Status)
	}
	return status
}
