package domain

import (
	"fmt"
	"time"
)

// FeedFormat identifies a merchant feed flavor.
type FeedFormat string

const (
	FeedFormatGoogle   FeedFormat = "google"
	FeedFormatFacebook FeedFormat = "facebook"
)

// ParseFeedFormat validates a feed format string.
func ParseFeedFormat(s string) (FeedFormat, error) {
	switch FeedFormat(s) {
	case FeedFormatGoogle, FeedFormatFacebook:
		return FeedFormat(s), nil
	}
	return "", fmt.Errorf("unknown feed format: %q", s)
}

// Feed is one generated feed document for a shop.
type Feed struct {
	ID           string
	ShopDomain   string
	Format       FeedFormat
	ProductCount int
	Body         []byte
	GeneratedAt  time.Time
}

// FeedKey returns the cache/storage key for a shop+format pair.
func FeedKey(shopDomain string, format FeedFormat) string {
	return fmt.Sprintf("feed:%s:%s", shopDomain, format)
}
