package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
	"github.com/feedhq/feedmanager/internal/infra/storage"
)

// FeedRepo implements storage.FeedRepository using PostgreSQL.
type FeedRepo struct {
	db *DB
}

// NewFeedRepo creates a new PostgreSQL feed repository.
func NewFeedRepo(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

type feedRow struct {
	ID           string    `db:"id"`
	ShopDomain   string    `db:"shop_domain"`
	Format       string    `db:"format"`
	ProductCount int       `db:"product_count"`
	Body         []byte    `db:"body"`
	GeneratedAt  time.Time `db:"generated_at"`
}

func (r *feedRow) toDomain() *domain.Feed {
	return &domain.Feed{
		ID:           r.ID,
		ShopDomain:   r.ShopDomain,
		Format:       domain.FeedFormat(r.Format),
		ProductCount: r.ProductCount,
		Body:         r.Body,
		GeneratedAt:  r.GeneratedAt,
	}
}

// Save saves a generated feed.
func (r *FeedRepo) Save(ctx context.Context, feed *domain.Feed) error {
	query := `
		INSERT INTO feeds (id, shop_domain, format, product_count, body, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		feed.ID,
		feed.ShopDomain,
		string(feed.Format),
		feed.ProductCount,
		feed.Body,
		feed.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save feed: %w", err)
	}
	return nil
}

// GetLatest retrieves the newest feed for a shop+format pair.
func (r *FeedRepo) GetLatest(
	ctx context.Context,
	shopDomain string,
	format domain.FeedFormat,
) (*domain.Feed, error) {
	query := `
		SELECT id, shop_domain, format, product_count, body, generated_at
		FROM feeds
		WHERE shop_domain = $1 AND format = $2
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var row feedRow
	err := r.db.GetContext(ctx, &row, query, shopDomain, string(format))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest feed: %w", err)
	}

	return row.toDomain(), nil
}

// GetRecent retrieves the most recently generated feeds.
func (r *FeedRepo) GetRecent(ctx context.Context, limit int) ([]*domain.Feed, error) {
	query := `
		SELECT id, shop_domain, format, product_count, body, generated_at
		FROM feeds
		ORDER BY generated_at DESC
		LIMIT $1
	`

	var rows []feedRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent feeds: %w", err)
	}

	feeds := make([]*domain.Feed, 0, len(rows))
	for i := range rows {
		feeds = append(feeds, rows[i].toDomain())
	}
	return feeds, nil
}

// DeleteOlderThan deletes feeds generated before the cutoff.
func (r *FeedRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	query := `DELETE FROM feeds WHERE generated_at < $1`
	_, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old feeds: %w", err)
	}
	return nil
}
