package domain

import (
	"time"
)

// Shop represents a storefront the feed manager is installed on.
type Shop struct {
	ID          uint64
	Domain      string
	AccessToken string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
