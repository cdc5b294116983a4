package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/storage"
)

type MemoryStorage struct {
	shops    map[string]*domain.Shop
	products map[string]map[uint64]*domain.Product
	feeds    []*domain.Feed
	events   map[string]*domain.WebhookEvent
	runs     []*domain.TaskRun
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		shops:    make(map[string]*domain.Shop),
		products: make(map[string]map[uint64]*domain.Product),
		events:   make(map[string]*domain.WebhookEvent),
	}
}

// -----------------------------------------------------------------------------
// Shop Repository
// -----------------------------------------------------------------------------

type ShopRepo struct {
	store *MemoryStorage
}

func NewShopRepo(store *MemoryStorage) *ShopRepo {
	return &ShopRepo{store: store}
}

func (r *ShopRepo) Save(ctx context.Context, shop *domain.Shop) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *shop
	r.store.shops[shop.Domain] = &cp
	return nil
}

func (r *ShopRepo) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.shops[shopDomain]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *ShopRepo) GetActive(ctx context.Context) ([]*domain.Shop, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var shops []*domain.Shop
	for _, s := range r.store.shops {
		if s.Active {
			cp := *s
			shops = append(shops, &cp)
		}
	}
	sort.Slice(shops, func(i, j int) bool { return shops[i].Domain < shops[j].Domain })
	return shops, nil
}

func (r *ShopRepo) Deactivate(ctx context.Context, shopDomain string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.shops[shopDomain]
	if !ok {
		return storage.ErrNotFound
	}
	s.Active = false
	s.UpdatedAt = time.Now()
	return nil
}

// -----------------------------------------------------------------------------
// Product Repository
// -----------------------------------------------------------------------------

type ProductRepo struct {
	store *MemoryStorage
}

func NewProductRepo(store *MemoryStorage) *ProductRepo {
	return &ProductRepo{store: store}
}

func (r *ProductRepo) Upsert(ctx context.Context, product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.upsertLocked(product)
	return nil
}

func (r *ProductRepo) UpsertBatch(ctx context.Context, products []*domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range products {
		r.upsertLocked(p)
	}
	return nil
}

func (r *ProductRepo) upsertLocked(product *domain.Product) {
	byID, ok := r.store.products[product.ShopDomain]
	if !ok {
		byID = make(map[uint64]*domain.Product)
		r.store.products[product.ShopDomain] = byID
	}
	cp := *product
	byID[product.ID] = &cp
}

func (r *ProductRepo) Delete(ctx context.Context, shopDomain string, productID uint64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if byID, ok := r.store.products[shopDomain]; ok {
		delete(byID, productID)
	}
	return nil
}

func (r *ProductRepo) GetByShop(ctx context.Context, shopDomain string) ([]*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var products []*domain.Product
	for _, p := range r.store.products[shopDomain] {
		cp := *p
		products = append(products, &cp)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *ProductRepo) Count(ctx context.Context, shopDomain string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.products[shopDomain]), nil
}

// -----------------------------------------------------------------------------
// Feed Repository
// -----------------------------------------------------------------------------

type FeedRepo struct {
	store *MemoryStorage
}

func NewFeedRepo(store *MemoryStorage) *FeedRepo {
	return &FeedRepo{store: store}
}

func (r *FeedRepo) Save(ctx context.Context, feed *domain.Feed) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *feed
	r.store.feeds = append(r.store.feeds, &cp)
	return nil
}

func (r *FeedRepo) GetLatest(
	ctx context.Context,
	shopDomain string,
	format domain.FeedFormat,
) (*domain.Feed, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var latest *domain.Feed
	for _, f := range r.store.feeds {
		if f.ShopDomain != shopDomain || f.Format != format {
			continue
		}
		if latest == nil || f.GeneratedAt.After(latest.GeneratedAt) {
			latest = f
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *FeedRepo) GetRecent(ctx context.Context, limit int) ([]*domain.Feed, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	feeds := make([]*domain.Feed, len(r.store.feeds))
	copy(feeds, r.store.feeds)
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].GeneratedAt.After(feeds[j].GeneratedAt)
	})
	if limit > 0 && len(feeds) > limit {
		feeds = feeds[:limit]
	}
	return feeds, nil
}

func (r *FeedRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.feeds[:0]
	for _, f := range r.store.feeds {
		if !f.GeneratedAt.Before(cutoff) {
			kept = append(kept, f)
		}
	}
	r.store.feeds = kept
	return nil
}

// -----------------------------------------------------------------------------
// Webhook Event Repository
// -----------------------------------------------------------------------------

type WebhookEventRepo struct {
	store *MemoryStorage
}

func NewWebhookEventRepo(store *MemoryStorage) *WebhookEventRepo {
	return &WebhookEventRepo{store: store}
}

func (r *WebhookEventRepo) Save(ctx context.Context, event *domain.WebhookEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *event
	r.store.events[event.ID] = &cp
	return nil
}

func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.events[id]
	if !ok {
		return storage.ErrNotFound
	}
	e.Processed = true
	e.Error = ""
	return nil
}

func (r *WebhookEventRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.events[id]
	if !ok {
		return storage.ErrNotFound
	}
	e.Processed = false
	e.Error = errMsg
	return nil
}

func (r *WebhookEventRepo) GetRecent(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	events := make([]*domain.WebhookEvent, 0, len(r.store.events))
	for _, e := range r.store.events {
		cp := *e
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].ReceivedAt.After(events[j].ReceivedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *WebhookEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, e := range r.store.events {
		if e.ReceivedAt.Before(cutoff) {
			delete(r.store.events, id)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Task Run Repository
// -----------------------------------------------------------------------------

type TaskRunRepo struct {
	store *MemoryStorage
}

func NewTaskRunRepo(store *MemoryStorage) *TaskRunRepo {
	return &TaskRunRepo{store: store}
}

func (r *TaskRunRepo) Save(ctx context.Context, run *domain.TaskRun) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *run
	r.store.runs = append(r.store.runs, &cp)
	return nil
}

func (r *TaskRunRepo) GetRecent(ctx context.Context, limit int) ([]*domain.TaskRun, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	runs := make([]*domain.TaskRun, len(r.store.runs))
	copy(runs, r.store.runs)
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
