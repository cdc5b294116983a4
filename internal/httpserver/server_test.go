package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/errview"
	"github.com/feedhq/feedmanager/internal/health"
	"github.com/feedhq/feedmanager/internal/infra/storage/memory"
	"github.com/feedhq/feedmanager/internal/shopify"
	"github.com/feedhq/feedmanager/internal/task"
	"github.com/feedhq/feedmanager/internal/webhook"
)

const testSecret = "shpss_test_secret"

type staticGenerator struct {
	err error
}

func (g *staticGenerator) GenerateAll(ctx context.Context) error { return g.err }

type mapCache struct {
	entries map[string][]byte
}

func (c *mapCache) GetFeed(ctx context.Context, key string) ([]byte, bool, error) {
	body, ok := c.entries[key]
	return body, ok, nil
}

func newTestServer(t *testing.T, gen task.Generator, cache FeedCache) (*Server, *memory.MemoryStorage) {
	t.Helper()
	store := memory.NewMemoryStorage()
	shops := memory.NewShopRepo(store)
	products := memory.NewProductRepo(store)
	feeds := memory.NewFeedRepo(store)
	events := memory.NewWebhookEventRepo(store)
	runs := memory.NewTaskRunRepo(store)

	ctx := context.Background()
	if err := shops.Save(ctx, &domain.Shop{Domain: "demo.myshopify.com", Active: true}); err != nil {
		t.Fatal(err)
	}
	if err := feeds.Save(ctx, &domain.Feed{
		ShopDomain:   "demo.myshopify.com",
		Format:       domain.FeedFormatGoogle,
		Body:         []byte(`<?xml version="1.0"?><rss/>`),
		ProductCount: 3,
		GeneratedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	if gen == nil {
		gen = &staticGenerator{}
	}
	runner := task.NewRunner(gen, runs, nil)
	processor := webhook.NewProcessor(events, products, shops, nil, nil)
	monitor := health.NewMonitor(
		shops, feeds, products,
		[]domain.FeedFormat{domain.FeedFormatGoogle},
		time.Hour, nil, nil,
	)

	return NewServer(Config{
		Port:          0,
		WebhookSecret: testSecret,
		Shops:         shops,
		Feeds:         feeds,
		Runs:          runs,
		Runner:        runner,
		Processor:     processor,
		Monitor:       monitor,
		Cache:         cache,
	}), store
}

func doRequest(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Index(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "demo.myshopify.com") {
		t.Error("expected active shop listed on index page")
	}
	if !strings.Contains(body, "/feeds/demo.myshopify.com/google.xml") {
		t.Error("expected feed link on index page")
	}
}

func TestServer_FeedFromStorage(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/feeds/demo.myshopify.com/google.xml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("expected XML content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<rss/>") {
		t.Error("expected stored feed body")
	}
}

func TestServer_FeedPrefersCache(t *testing.T) {
	key := domain.FeedKey("demo.myshopify.com", domain.FeedFormatGoogle)
	cache := &mapCache{entries: map[string][]byte{key: []byte("<cached/>")}}
	s, _ := newTestServer(t, nil, cache)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/feeds/demo.myshopify.com/google.xml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "<cached/>" {
		t.Errorf("expected cached body, got %q", rec.Body.String())
	}
}

func TestServer_MissingFeedRendersErrorPage(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	cases := []string{
		"/feeds/demo.myshopify.com/facebook.xml", // no feed stored for this format
		"/feeds/other.myshopify.com/google.xml",  // unknown shop
		"/feeds/demo.myshopify.com/google.json",  // wrong extension
		"/feeds/demo.myshopify.com/pinterest.xml", // unknown format
	}
	for _, path := range cases {
		rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
			continue
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<title>Error - Feed Manager</title>") {
			t.Errorf("%s: expected error page title", path)
		}
		if !strings.Contains(body, "404 Not Found") {
			t.Errorf("%s: expected status summary on error page, got:\n%s", path, body)
		}
		if !strings.Contains(body, "Feed missing") {
			t.Errorf("%s: expected route error message in details, got:\n%s", path, body)
		}
	}
}

func TestServer_Webhook(t *testing.T) {
	s, store := newTestServer(t, nil, nil)

	payload := []byte(`{"id":9,"title":"Bowl","status":"active","variants":[{"id":90,"price":"2.00"}]}`)

	t.Run("valid signature applies product", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/products/create", strings.NewReader(string(payload)))
		req.Header.Set(shopify.HeaderHMAC, shopify.SignWebhook(testSecret, payload))
		req.Header.Set(shopify.HeaderTopic, "products/create")
		req.Header.Set(shopify.HeaderShopDomain, "demo.myshopify.com")
		req.Header.Set(shopify.HeaderWebhookID, "wh-1")

		rec := doRequest(t, s, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		products := memory.NewProductRepo(store)
		count, _ := products.Count(context.Background(), "demo.myshopify.com")
		if count != 1 {
			t.Errorf("expected product applied, count = %d", count)
		}
	})

	t.Run("invalid signature rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/products/create", strings.NewReader(string(payload)))
		req.Header.Set(shopify.HeaderHMAC, "bogus")
		req.Header.Set(shopify.HeaderShopDomain, "demo.myshopify.com")

		rec := doRequest(t, s, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/products/create", strings.NewReader(string(payload)))

		rec := doRequest(t, s, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestServer_GenerateFeedsEnvelope(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, _ := newTestServer(t, &staticGenerator{}, nil)

		rec := doRequest(t, s, httptest.NewRequest(http.MethodPost, "/tasks/generate-feeds", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var body struct {
			Message   string `json:"message"`
			Timestamp string `json:"timestamp"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON body: %v", err)
		}
		if body.Message == "" || body.Timestamp == "" {
			t.Errorf("expected message and timestamp, got %+v", body)
		}
		if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
			t.Errorf("timestamp not RFC3339: %v", err)
		}
	})

	t.Run("failure", func(t *testing.T) {
		s, _ := newTestServer(t, &staticGenerator{err: context.DeadlineExceeded}, nil)

		rec := doRequest(t, s, httptest.NewRequest(http.MethodPost, "/tasks/generate-feeds", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}

		var body struct {
			Error     string `json:"error"`
			Message   string `json:"message"`
			Timestamp string `json:"timestamp"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON body: %v", err)
		}
		if body.Error == "" || body.Timestamp == "" {
			t.Errorf("expected error and timestamp, got %+v", body)
		}
	})
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(health.StatusHealthy)) {
		t.Errorf("expected healthy status, got %s", rec.Body.String())
	}

	rec = doRequest(t, s, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report health.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid detailed report: %v", err)
	}
	if _, ok := report.Shops["demo.myshopify.com"]; !ok {
		t.Error("expected per-shop health in detailed report")
	}
}

func TestServer_PanicRendersErrorPage(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	boom := s.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("generation exploded")
	}))

	rec := httptest.NewRecorder()
	boom.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Error - Feed Manager</title>") {
		t.Error("expected error page title")
	}
	if !strings.Contains(body, "An unexpected error occurred") {
		t.Errorf("expected fallback summary for panic value, got:\n%s", body)
	}
}

func TestServer_PanicWithRouteErrorKeepsStatus(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	boom := s.recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errview.NewRouteError(http.StatusServiceUnavailable, "storage offline"))
	}))

	rec := httptest.NewRecorder()
	boom.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from route error panic, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "503 Service Unavailable") {
		t.Errorf("expected status summary, got:\n%s", body)
	}
	if !strings.Contains(body, "storage offline") {
		t.Errorf("expected message in details, got:\n%s", body)
	}
}
