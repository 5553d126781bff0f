// This file defines the style feed: curated trending items shown to all
// users. Feed content is read-only from the application's point of view.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// StyleItem is one entry in the trending style feed.
type StyleItem struct {
	ID            uuid.UUID
	Title         string
	Category      ItemCategory
	Brand         string
	ImageURL      string
	ProductURL    string
	TrendingScore int // higher sorts first
	CreatedAt     time.Time
}

// FeedFilter narrows a feed query.
type FeedFilter struct {
	Category ItemCategory // empty means all categories
	Limit    int          // 0 means the repository default
}
