package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/storage"
)

func TestShopRepo(t *testing.T) {
	repo := NewShopRepo(NewMemoryStorage())
	ctx := context.Background()

	if _, err := repo.GetByDomain(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Save(ctx, &domain.Shop{Domain: "a.myshopify.com", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, &domain.Shop{Domain: "b.myshopify.com", Active: false}); err != nil {
		t.Fatal(err)
	}

	active, err := repo.GetActive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Domain != "a.myshopify.com" {
		t.Errorf("expected only the active shop, got %+v", active)
	}

	if err := repo.Deactivate(ctx, "a.myshopify.com"); err != nil {
		t.Fatal(err)
	}
	active, _ = repo.GetActive(ctx)
	if len(active) != 0 {
		t.Errorf("expected no active shops after deactivation, got %d", len(active))
	}

	if err := repo.Deactivate(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProductRepo(t *testing.T) {
	repo := NewProductRepo(NewMemoryStorage())
	ctx := context.Background()

	if err := repo.UpsertBatch(ctx, []*domain.Product{
		{ID: 2, ShopDomain: "a.myshopify.com", Title: "B"},
		{ID: 1, ShopDomain: "a.myshopify.com", Title: "A"},
	}); err != nil {
		t.Fatal(err)
	}

	products, err := repo.GetByShop(ctx, "a.myshopify.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 || products[0].ID != 1 {
		t.Errorf("expected products sorted by ID, got %+v", products)
	}

	// Upsert with an existing ID replaces in place.
	if err := repo.Upsert(ctx, &domain.Product{ID: 1, ShopDomain: "a.myshopify.com", Title: "A2"}); err != nil {
		t.Fatal(err)
	}
	count, _ := repo.Count(ctx, "a.myshopify.com")
	if count != 2 {
		t.Errorf("expected count 2 after upsert, got %d", count)
	}
	products, _ = repo.GetByShop(ctx, "a.myshopify.com")
	if products[0].Title != "A2" {
		t.Errorf("expected upsert to replace, got %q", products[0].Title)
	}

	if err := repo.Delete(ctx, "a.myshopify.com", 1); err != nil {
		t.Fatal(err)
	}
	count, _ = repo.Count(ctx, "a.myshopify.com")
	if count != 1 {
		t.Errorf("expected count 1 after delete, got %d", count)
	}

	// Deleting an unknown product is a no-op.
	if err := repo.Delete(ctx, "a.myshopify.com", 99); err != nil {
		t.Errorf("delete of unknown product should not fail: %v", err)
	}
}

func TestFeedRepo(t *testing.T) {
	repo := NewFeedRepo(NewMemoryStorage())
	ctx := context.Background()

	if _, err := repo.GetLatest(ctx, "a.myshopify.com", domain.FeedFormatGoogle); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	now := time.Now()
	old := &domain.Feed{
		ShopDomain:  "a.myshopify.com",
		Format:      domain.FeedFormatGoogle,
		Body:        []byte("old"),
		GeneratedAt: now.Add(-time.Hour),
	}
	fresh := &domain.Feed{
		ShopDomain:  "a.myshopify.com",
		Format:      domain.FeedFormatGoogle,
		Body:        []byte("fresh"),
		GeneratedAt: now,
	}
	for _, f := range []*domain.Feed{old, fresh} {
		if err := repo.Save(ctx, f); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := repo.GetLatest(ctx, "a.myshopify.com", domain.FeedFormatGoogle)
	if err != nil {
		t.Fatal(err)
	}
	if string(latest.Body) != "fresh" {
		t.Errorf("expected latest feed, got %q", latest.Body)
	}

	recent, _ := repo.GetRecent(ctx, 1)
	if len(recent) != 1 || string(recent[0].Body) != "fresh" {
		t.Errorf("expected limit applied newest first, got %+v", recent)
	}

	if err := repo.DeleteOlderThan(ctx, now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	recent, _ = repo.GetRecent(ctx, 0)
	if len(recent) != 1 {
		t.Errorf("expected old feed pruned, got %d feeds", len(recent))
	}
}

func TestWebhookEventRepo(t *testing.T) {
	repo := NewWebhookEventRepo(NewMemoryStorage())
	ctx := context.Background()

	event := &domain.WebhookEvent{
		ID:         "wh-1",
		Topic:      domain.TopicProductsCreate,
		ShopDomain: "a.myshopify.com",
		ReceivedAt: time.Now(),
	}
	if err := repo.Save(ctx, event); err != nil {
		t.Fatal(err)
	}

	if err := repo.MarkFailed(ctx, "wh-1", "boom"); err != nil {
		t.Fatal(err)
	}
	events, _ := repo.GetRecent(ctx, 0)
	if len(events) != 1 || events[0].Error != "boom" || events[0].Processed {
		t.Errorf("expected failed event, got %+v", events)
	}

	if err := repo.MarkProcessed(ctx, "wh-1"); err != nil {
		t.Fatal(err)
	}
	events, _ = repo.GetRecent(ctx, 0)
	if !events[0].Processed || events[0].Error != "" {
		t.Errorf("expected processed event with cleared error, got %+v", events[0])
	}

	if err := repo.MarkProcessed(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	events, _ = repo.GetRecent(ctx, 0)
	if len(events) != 0 {
		t.Errorf("expected events pruned, got %d", len(events))
	}
}

func TestTaskRunRepo(t *testing.T) {
	repo := NewTaskRunRepo(NewMemoryStorage())
	ctx := context.Background()

	now := time.Now()
	for i, status := range []domain.TaskRunStatus{domain.TaskRunFailed, domain.TaskRunSucceeded} {
		if err := repo.Save(ctx, &domain.TaskRun{
			ID:        string(rune('a' + i)),
			Name:      "generate-feeds",
			Status:    status,
			StartedAt: now.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := repo.GetRecent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != domain.TaskRunSucceeded {
		t.Errorf("expected newest run first, got %+v", runs)
	}
}

func TestRepositoriesReturnCopies(t *testing.T) {
	store := NewMemoryStorage()
	shops := NewShopRepo(store)
	ctx := context.Background()

	if err := shops.Save(ctx, &domain.Shop{Domain: "a.myshopify.com", Active: true}); err != nil {
		t.Fatal(err)
	}

	got, _ := shops.GetByDomain(ctx, "a.myshopify.com")
	got.Active = false

	again, _ := shops.GetByDomain(ctx, "a.myshopify.com")
	if !again.Active {
		t.Error("mutating a returned shop must not affect the store")
	}
}
