// Package control wires the application together and manages its lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/feedhq/feedmanager/internal/core/config"
	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/core/worker"
	"github.com/feedhq/feedmanager/internal/feed"
	"github.com/feedhq/feedmanager/internal/health"
	"github.com/feedhq/feedmanager/internal/httpserver"
	redisclient "github.com/feedhq/feedmanager/internal/infra/redis"
	"github.com/feedhq/feedmanager/internal/infra/storage"
	"github.com/feedhq/feedmanager/internal/infra/storage/memory"
	"github.com/feedhq/feedmanager/internal/infra/storage/postgres"
	"github.com/feedhq/feedmanager/internal/scheduler"
	"github.com/feedhq/feedmanager/internal/shopify"
	"github.com/feedhq/feedmanager/internal/task"
	"github.com/feedhq/feedmanager/internal/webhook"
)

// Config holds the application configuration.
type Config struct {
	App              *config.AppConfig
	SchedulerEnabled bool // CLI flag
}

// App is the main application struct that manages the service lifecycle.
type App struct {
	cfg         Config
	server      *httpserver.Server
	sched       *scheduler.Scheduler
	pruner      *worker.Pruner
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// NewApp creates a new App instance with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	appCfg := cfg.App

	// 1. Initialize Storage
	var shopRepo storage.ShopRepository
	var productRepo storage.ProductRepository
	var feedRepo storage.FeedRepository
	var eventRepo storage.WebhookEventRepository
	var runRepo storage.TaskRunRepository
	var db *postgres.DB

	if appCfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), appCfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Run migrations
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		shopRepo = postgres.NewShopRepo(db)
		productRepo = postgres.NewProductRepo(db)
		feedRepo = postgres.NewFeedRepo(db)
		eventRepo = postgres.NewWebhookEventRepo(db)
		runRepo = postgres.NewTaskRunRepo(db)

		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		shopRepo = memory.NewShopRepo(store)
		productRepo = memory.NewProductRepo(store)
		feedRepo = memory.NewFeedRepo(store)
		eventRepo = memory.NewWebhookEventRepo(store)
		runRepo = memory.NewTaskRunRepo(store)

		slog.Info("Using Memory storage")
	}

	// 2. Seed configured shops
	for _, s := range appCfg.Shops {
		shop := &domain.Shop{
			Domain:      s.Domain,
			AccessToken: s.AccessToken,
			Active:      true,
		}
		if err := shopRepo.Save(context.Background(), shop); err != nil {
			return nil, fmt.Errorf("failed to seed shop %s: %w", s.Domain, err)
		}
	}
	slog.Info("Seeded shops from config", "count", len(appCfg.Shops))

	// 3. Initialize Redis
	var redisClient *redisclient.Client
	if appCfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(appCfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, cache disabled", "error", err)
		}
	}

	// 4. Feed generation pipeline
	formats := make([]domain.FeedFormat, 0, len(appCfg.Feeds.Formats))
	for _, f := range appCfg.Feeds.Formats {
		format, err := domain.ParseFeedFormat(f)
		if err != nil {
			return nil, err
		}
		formats = append(formats, format)
	}

	builder := feed.NewBuilder(appCfg.Feeds.Currency)
	client := shopify.NewClient(appCfg.Shopify.APIVersion, appCfg.Shopify.Timeout)

	var feedCache feed.Cache
	if redisClient != nil {
		feedCache = redisClient
	}
	generator := feed.NewGenerator(
		feed.GeneratorConfig{
			Formats:  formats,
			CacheTTL: appCfg.Feeds.CacheTTL,
		},
		shopRepo,
		productRepo,
		feedRepo,
		feedCache,
		client,
		builder,
		slog.Default(),
	)

	runner := task.NewRunner(generator, runRepo, slog.Default())
	sched := scheduler.New(appCfg.Feeds.Interval, runner, slog.Default())

	// 5. Webhook processing
	var dedup webhook.Deduper
	if redisClient != nil {
		dedup = redisClient
	}
	processor := webhook.NewProcessor(eventRepo, productRepo, shopRepo, dedup, slog.Default())

	// 6. Health Monitor
	var dbPinger, cachePinger health.Pinger
	if db != nil {
		dbPinger = pingerFunc(db.Health)
	}
	if redisClient != nil {
		cachePinger = pingerFunc(redisClient.Ping)
	}
	monitor := health.NewMonitor(
		shopRepo,
		feedRepo,
		productRepo,
		formats,
		appCfg.Feeds.Interval,
		dbPinger,
		cachePinger,
	)

	// 7. HTTP Server
	var serverCache httpserver.FeedCache
	if redisClient != nil {
		serverCache = redisClient
	}
	server := httpserver.NewServer(httpserver.Config{
		Port:          appCfg.Server.Port,
		WebhookSecret: appCfg.Shopify.WebhookSecret,
		Shops:         shopRepo,
		Feeds:         feedRepo,
		Runs:          runRepo,
		Runner:        runner,
		Processor:     processor,
		Monitor:       monitor,
		Cache:         serverCache,
		Log:           slog.Default(),
	})

	// 8. Pruner
	pruner := worker.NewPruner(appCfg.Feeds.Retention, feedRepo, eventRepo, slog.Default())

	return &App{
		cfg:         cfg,
		server:      server,
		sched:       sched,
		pruner:      pruner,
		db:          db,
		redisClient: redisClient,
		log:         slog.Default(),
	}, nil
}

// Start starts the app and all its components.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	if a.cfg.SchedulerEnabled {
		a.log.Info("Starting feed scheduler", "interval", a.cfg.App.Feeds.Interval)
		go a.sched.Start(ctx)
	}

	a.log.Info("Starting pruner", "retention", a.cfg.App.Feeds.Retention)
	go a.pruner.Start(ctx)

	return nil
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping Feed Manager...")

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if a.db != nil {
		defer func() {
			if err := a.db.Close(); err != nil {
				a.log.Warn("Failed to close database", "error", err)
			}
		}()
	}

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return a.server.Stop(stopCtx)
}

// pingerFunc adapts a ping function to the health.Pinger interface.
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
