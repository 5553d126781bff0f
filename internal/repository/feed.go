package repository

import (
	"context"
	"database/sql"

	"github.com/calebsouthern/attire/internal/domain"
)

// FeedRepo reads the curated style feed.
type FeedRepo struct {
	db *sql.DB
}

// NewFeedRepo creates a FeedRepo backed by db.
func NewFeedRepo(db *sql.DB) *FeedRepo {
	return &FeedRepo{db: db}
}

const defaultFeedLimit = 50

// ListTrending returns feed items ordered by trending score.
func (r *FeedRepo) ListTrending(ctx context.Context, filter domain.FeedFilter) ([]*domain.StyleItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	query := `
		SELECT id, title, category, COALESCE(brand, ''), COALESCE(image_url, ''),
		       COALESCE(product_url, ''), trending_score, created_at
		FROM style_items
		WHERE ($1 = '' OR category = $1)
		ORDER BY trending_score DESC, created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, string(filter.Category), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.StyleItem
	for rows.Next() {
		var item domain.StyleItem
		err := rows.Scan(
			&item.ID, &item.Title, &item.Category, &item.Brand,
			&item.ImageURL, &item.ProductURL, &item.TrendingScore, &item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
