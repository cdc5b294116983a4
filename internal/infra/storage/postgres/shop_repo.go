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

// ShopRepo implements storage.ShopRepository using PostgreSQL.
type ShopRepo struct {
	db *DB
}

// NewShopRepo creates a new PostgreSQL shop repository.
func NewShopRepo(db *DB) *ShopRepo {
	return &ShopRepo{db: db}
}

type shopRow struct {
	ID          uint64    `db:"id"`
	Domain      string    `db:"shop_domain"`
	AccessToken string    `db:"access_token"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *shopRow) toDomain() *domain.Shop {
	return &domain.Shop{
		ID:          r.ID,
		Domain:      r.Domain,
		AccessToken: r.AccessToken,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Save creates or updates a shop.
func (r *ShopRepo) Save(ctx context.Context, shop *domain.Shop) error {
	query := `
		INSERT INTO shops (shop_domain, access_token, active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (shop_domain) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			active = EXCLUDED.active,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, shop.Domain, shop.AccessToken, shop.Active)
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

// GetByDomain retrieves a shop by its domain.
func (r *ShopRepo) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	query := `
		SELECT id, shop_domain, access_token, active, created_at, updated_at
		FROM shops
		WHERE shop_domain = $1
	`

	var row shopRow
	err := r.db.GetContext(ctx, &row, query, shopDomain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return row.toDomain(), nil
}

// GetActive retrieves all active shops.
func (r *ShopRepo) GetActive(ctx context.Context) ([]*domain.Shop, error) {
	query := `
		SELECT id, shop_domain, access_token, active, created_at, updated_at
		FROM shops
		WHERE active = TRUE
		ORDER BY shop_domain
	`

	var rows []shopRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get active shops: %w", err)
	}

	shops := make([]*domain.Shop, 0, len(rows))
	for i := range rows {
		shops = append(shops, rows[i].toDomain())
	}
	return shops, nil
}

// Deactivate marks a shop as inactive.
func (r *ShopRepo) Deactivate(ctx context.Context, shopDomain string) error {
	query := `UPDATE shops SET active = FALSE, updated_at = NOW() WHERE shop_domain = $1`
	res, err := r.db.ExecContext(ctx, query, shopDomain)
	if err != nil {
		return fmt.Errorf("failed to deactivate shop: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
