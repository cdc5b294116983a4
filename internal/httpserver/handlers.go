package httpserver

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/errview"
	"github.com/feedhq/feedmanager/internal/health"
	"github.com/feedhq/feedmanager/internal/infra/metrics"
	"github.com/feedhq/feedmanager/internal/infra/storage"
	"github.com/feedhq/feedmanager/internal/shopify"
)

const maxWebhookBody = 1 << 20 // platform caps payloads well below this

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Feed Manager</title>
</head>
<body>
<h1>Feed Manager</h1>
<h2>Shops</h2>
<ul>
{{- range .Shops}}
<li>{{.Domain}}</li>
{{- else}}
<li>No active shops</li>
{{- end}}
</ul>
<h2>Recent feeds</h2>
<ul>
{{- range .Feeds}}
<li><a href="/feeds/{{.ShopDomain}}/{{.Format}}.xml">{{.ShopDomain}} / {{.Format}}</a>: {{.ProductCount}} products, {{.GeneratedAt.Format "2006-01-02 15:04:05"}} UTC</li>
{{- else}}
<li>No feeds generated yet</li>
{{- end}}
</ul>
<h2>Recent task runs</h2>
<ul>
{{- range .Runs}}
<li>{{.StartedAt.Format "2006-01-02 15:04:05"}} {{.Status}}{{if .Message}}: {{.Message}}{{end}}</li>
{{- else}}
<li>No runs recorded</li>
{{- end}}
</ul>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shops, err := s.cfg.Shops.GetActive(ctx)
	if err != nil {
		s.renderCaught(w, err)
		return
	}
	feeds, err := s.cfg.Feeds.GetRecent(ctx, 20)
	if err != nil {
		s.renderCaught(w, err)
		return
	}
	runs, err := s.cfg.Runs.GetRecent(ctx, 10)
	if err != nil {
		s.renderCaught(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Shops []*domain.Shop
		Feeds []*domain.Feed
		Runs  []*domain.TaskRun
	}{shops, feeds, runs}
	if err := indexTmpl.Execute(w, data); err != nil {
		s.log.Error("Failed to render index", "error", err)
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	shopDomain := r.PathValue("shop")
	file := r.PathValue("file")

	name, ok := strings.CutSuffix(file, ".xml")
	if !ok {
		s.renderCaught(w, errview.NewRouteError(http.StatusNotFound, "Feed missing"))
		return
	}
	format, err := domain.ParseFeedFormat(name)
	if err != nil {
		s.renderCaught(w, errview.NewRouteError(http.StatusNotFound, "Feed missing"))
		return
	}

	body, err := s.loadFeed(r, shopDomain, format)
	if errors.Is(err, storage.ErrNotFound) {
		s.renderCaught(w, errview.NewRouteError(http.StatusNotFound, "Feed missing"))
		return
	}
	if err != nil {
		s.renderCaught(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

// loadFeed serves the cached body when available and falls back to storage.
func (s *Server) loadFeed(
	r *http.Request,
	shopDomain string,
	format domain.FeedFormat,
) ([]byte, error) {
	ctx := r.Context()

	if s.cfg.Cache != nil {
		key := domain.FeedKey(shopDomain, format)
		body, found, err := s.cfg.Cache.GetFeed(ctx, key)
		if err != nil {
			s.log.Warn("Feed cache lookup failed", "key", key, "error", err)
		} else if found {
			metrics.FeedCacheHits.WithLabelValues("hit").Inc()
			return body, nil
		}
		metrics.FeedCacheHits.WithLabelValues("miss").Inc()
	}

	feed, err := s.cfg.Feeds.GetLatest(ctx, shopDomain, format)
	if err != nil {
		return nil, err
	}
	return feed.Body, nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(shopify.HeaderHMAC)
	if !shopify.VerifyWebhook(s.cfg.WebhookSecret, body, signature) {
		s.log.Warn("Rejected webhook with invalid signature",
			"topic", topic,
			"shop", r.Header.Get(shopify.HeaderShopDomain))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event := &domain.WebhookEvent{
		ID:         r.Header.Get(shopify.HeaderWebhookID),
		Topic:      domain.WebhookTopic(topic),
		ShopDomain: r.Header.Get(shopify.HeaderShopDomain),
		Payload:    body,
		ReceivedAt: time.Now().UTC(),
	}
	if event.ID == "" {
		event.ID = shopify.SignWebhook(s.cfg.WebhookSecret, body)
	}
	if headerTopic := r.Header.Get(shopify.HeaderTopic); headerTopic != "" {
		event.Topic = domain.WebhookTopic(headerTopic)
	}

	// After verification the platform expects a 2xx; processing failures are
	// recorded against the event rather than surfaced, so the platform does
	// not redeliver a payload that will never apply.
	if err := s.cfg.Processor.Handle(r.Context(), event); err != nil {
		s.log.Error("Webhook processing failed", "id", event.ID, "error", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerateFeeds(w http.ResponseWriter, r *http.Request) {
	env := s.cfg.Runner.Run(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	_, _ = io.WriteString(w, env.Body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.cfg.Monitor.CheckHealth(r.Context())

	status := http.StatusOK
	if report.SystemStatus == health.StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"status": string(report.SystemStatus)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.cfg.Monitor.CheckHealth(r.Context())
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
