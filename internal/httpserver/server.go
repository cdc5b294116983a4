// Package httpserver exposes the admin UI, feed documents, webhook endpoints,
// and operational probes over HTTP.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feedhq/feedmanager/internal/health"
	"github.com/feedhq/feedmanager/internal/infra/storage"
	"github.com/feedhq/feedmanager/internal/task"
	"github.com/feedhq/feedmanager/internal/webhook"
)

// FeedCache reads cached feed bodies.
type FeedCache interface {
	GetFeed(ctx context.Context, key string) (body []byte, found bool, err error)
}

// Config holds the server's dependencies and settings.
type Config struct {
	Port          int
	WebhookSecret string
	Shops         storage.ShopRepository
	Feeds         storage.FeedRepository
	Runs          storage.TaskRunRepository
	Runner        *task.Runner
	Processor     *webhook.Processor
	Monitor       *health.Monitor
	Cache         FeedCache // optional
	Log           *slog.Logger
}

// Server is the application's HTTP surface.
type Server struct {
	cfg    Config
	log    *slog.Logger
	server *http.Server
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	s := &Server{cfg: cfg, log: cfg.Log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /feeds/{shop}/{file}", s.handleFeed)
	mux.HandleFunc("POST /webhooks/{topic...}", s.handleWebhook)
	mux.HandleFunc("POST /tasks/generate-feeds", s.handleGenerateFeeds)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.recoverer(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the root handler, including the error boundary.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
