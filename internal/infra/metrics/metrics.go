package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedsGenerated tracks generated feeds per shop and format
	FeedsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmanager_feeds_generated_total",
			Help: "Total number of feeds generated",
		},
		[]string{"shop", "format"},
	)

	// FeedGenerationDuration tracks how long a full generation run takes
	FeedGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedmanager_feed_generation_duration_seconds",
			Help:    "Duration of a full feed generation run in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FeedGenerationFailures tracks failed generation runs
	FeedGenerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedmanager_feed_generation_failures_total",
			Help: "Total number of failed feed generation runs",
		},
	)

	// FeedProducts tracks the number of products in the latest feed
	FeedProducts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedmanager_feed_products",
			Help: "Number of products in the most recently generated feed",
		},
		[]string{"shop", "format"},
	)

	// WebhooksReceived tracks received webhook deliveries per topic
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmanager_webhooks_received_total",
			Help: "Total number of webhook deliveries received",
		},
		[]string{"topic"},
	)

	// WebhookFailures tracks webhook deliveries that failed processing
	WebhookFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmanager_webhook_failures_total",
			Help: "Total number of webhook deliveries that failed processing",
		},
		[]string{"topic"},
	)

	// FeedCacheHits tracks feed cache hits and misses
	FeedCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedmanager_feed_cache_requests_total",
			Help: "Feed cache lookups by result",
		},
		[]string{"result"},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedmanager_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
