package domain

import (
	"time"
)

// WebhookTopic identifies a platform webhook topic.
type WebhookTopic string

const (
	TopicProductsCreate WebhookTopic = "products/create"
	TopicProductsUpdate WebhookTopic = "products/update"
	TopicProductsDelete WebhookTopic = "products/delete"
	TopicAppUninstalled WebhookTopic = "app/uninstalled"
)

// WebhookEvent is one received webhook delivery.
type WebhookEvent struct {
	ID         string
	Topic      WebhookTopic
	ShopDomain string
	Payload    []byte
	ReceivedAt time.Time
	Processed  bool
	Error      string
}
