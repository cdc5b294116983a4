package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/storage/memory"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

type monitorFixture struct {
	shops    *memory.ShopRepo
	feeds    *memory.FeedRepo
	products *memory.ProductRepo
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()
	store := memory.NewMemoryStorage()
	f := &monitorFixture{
		shops:    memory.NewShopRepo(store),
		feeds:    memory.NewFeedRepo(store),
		products: memory.NewProductRepo(store),
	}
	if err := f.shops.Save(context.Background(), &domain.Shop{
		Domain: "demo.myshopify.com",
		Active: true,
	}); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *monitorFixture) saveFeed(t *testing.T, age time.Duration) {
	t.Helper()
	if err := f.feeds.Save(context.Background(), &domain.Feed{
		ShopDomain:  "demo.myshopify.com",
		Format:      domain.FeedFormatGoogle,
		Body:        []byte("<rss/>"),
		GeneratedAt: time.Now().Add(-age),
	}); err != nil {
		t.Fatal(err)
	}
}

func (f *monitorFixture) monitor(db, cache Pinger) *Monitor {
	return NewMonitor(
		f.shops, f.feeds, f.products,
		[]domain.FeedFormat{domain.FeedFormatGoogle},
		time.Minute, db, cache,
	)
}

func TestMonitor_FreshFeedIsHealthy(t *testing.T) {
	f := newMonitorFixture(t)
	f.saveFeed(t, 10*time.Second)

	report := f.monitor(nil, nil).CheckHealth(context.Background())
	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.SystemStatus)
	}
	shop := report.Shops["demo.myshopify.com"]
	if shop.Status != StatusHealthy {
		t.Errorf("expected healthy shop, got %s", shop.Status)
	}
	if shop.FeedAgeSeconds <= 0 {
		t.Errorf("expected positive feed age, got %d", shop.FeedAgeSeconds)
	}
}

func TestMonitor_StaleFeedDegrades(t *testing.T) {
	f := newMonitorFixture(t)
	f.saveFeed(t, 3*time.Minute) // past 2x the generation interval

	report := f.monitor(nil, nil).CheckHealth(context.Background())
	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
}

func TestMonitor_VeryStaleFeedIsCritical(t *testing.T) {
	f := newMonitorFixture(t)
	f.saveFeed(t, 10*time.Minute) // past 6x the generation interval

	report := f.monitor(nil, nil).CheckHealth(context.Background())
	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical, got %s", report.SystemStatus)
	}
}

func TestMonitor_MissingFeedDegrades(t *testing.T) {
	f := newMonitorFixture(t)

	report := f.monitor(nil, nil).CheckHealth(context.Background())
	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded without any feed, got %s", report.SystemStatus)
	}
}

func TestMonitor_StoragePingFailureIsCritical(t *testing.T) {
	f := newMonitorFixture(t)
	f.saveFeed(t, time.Second)

	report := f.monitor(&stubPinger{err: errors.New("db down")}, nil).CheckHealth(context.Background())
	if report.Storage != StatusCritical {
		t.Errorf("expected critical storage, got %s", report.Storage)
	}
	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical system, got %s", report.SystemStatus)
	}
}

func TestMonitor_CachePingFailureOnlyDegrades(t *testing.T) {
	f := newMonitorFixture(t)
	f.saveFeed(t, time.Second)

	report := f.monitor(nil, &stubPinger{err: errors.New("redis down")}).CheckHealth(context.Background())
	if report.Cache != StatusDegraded {
		t.Errorf("expected degraded cache, got %s", report.Cache)
	}
	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded system, got %s", report.SystemStatus)
	}
}

func TestMonitor_ReportIsCached(t *testing.T) {
	f := newMonitorFixture(t)
	m := f.monitor(nil, nil)

	first := m.CheckHealth(context.Background())
	f.saveFeed(t, time.Second)
	second := m.CheckHealth(context.Background())

	// Within the rate-limit window the same report comes back.
	if first != second {
		t.Error("expected cached report within the check window")
	}
}
