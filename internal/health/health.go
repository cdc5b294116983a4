// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ShopHealth contains feed freshness metrics for one shop.
type ShopHealth struct {
	ShopDomain     string       `json:"shop_domain"`
	Status         SystemStatus `json:"status"`
	FeedAgeSeconds int64        `json:"feed_age_seconds"`
	Products       int          `json:"products"`
}

// Report contains the full system health report.
type Report struct {
	SystemStatus SystemStatus          `json:"system_status"`
	Storage      SystemStatus          `json:"storage"`
	Cache        SystemStatus          `json:"cache"`
	Shops        map[string]ShopHealth `json:"shops"`
}
