package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
)

// ProductRepo implements storage.ProductRepository using PostgreSQL.
// Variants are stored denormalized as a JSONB column; the feed builder always
// consumes a product together with all of its variants.
type ProductRepo struct {
	db *DB
}

// NewProductRepo creates a new PostgreSQL product repository.
func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

type productRow struct {
	ID          uint64    `db:"product_id"`
	ShopDomain  string    `db:"shop_domain"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Vendor      string    `db:"vendor"`
	ProductType string    `db:"product_type"`
	Handle      string    `db:"handle"`
	ImageURL    string    `db:"image_url"`
	Status      string    `db:"status"`
	Variants    []byte    `db:"variants"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *productRow) toDomain() (*domain.Product, error) {
	p := &domain.Product{
		ID:          r.ID,
		ShopDomain:  r.ShopDomain,
		Title:       r.Title,
		Description: r.Description,
		Vendor:      r.Vendor,
		ProductType: r.ProductType,
		Handle:      r.Handle,
		ImageURL:    r.ImageURL,
		Status:      domain.ProductStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Variants) > 0 {
		if err := json.Unmarshal(r.Variants, &p.Variants); err != nil {
			return nil, fmt.Errorf("failed to decode variants: %w", err)
		}
	}
	return p, nil
}

const upsertProductQuery = `
	INSERT INTO products (
		shop_domain, product_id, title, description, vendor, product_type,
		handle, image_url, status, variants, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (shop_domain, product_id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		vendor = EXCLUDED.vendor,
		product_type = EXCLUDED.product_type,
		handle = EXCLUDED.handle,
		image_url = EXCLUDED.image_url,
		status = EXCLUDED.status,
		variants = EXCLUDED.variants,
		updated_at = EXCLUDED.updated_at
`

// Upsert saves a product, replacing an existing one.
func (r *ProductRepo) Upsert(ctx context.Context, product *domain.Product) error {
	variants, err := json.Marshal(product.Variants)
	if err != nil {
		return fmt.Errorf("failed to encode variants: %w", err)
	}

	_, err = r.db.ExecContext(ctx, upsertProductQuery,
		product.ShopDomain,
		product.ID,
		product.Title,
		product.Description,
		product.Vendor,
		product.ProductType,
		product.Handle,
		product.ImageURL,
		string(product.Status),
		variants,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// UpsertBatch saves multiple products in one transaction.
func (r *ProductRepo) UpsertBatch(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertProductQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, product := range products {
		variants, err := json.Marshal(product.Variants)
		if err != nil {
			return fmt.Errorf("failed to encode variants: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			product.ShopDomain,
			product.ID,
			product.Title,
			product.Description,
			product.Vendor,
			product.ProductType,
			product.Handle,
			product.ImageURL,
			string(product.Status),
			variants,
			product.CreatedAt,
			product.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, shopDomain string, productID uint64) error {
	query := `DELETE FROM products WHERE shop_domain = $1 AND product_id = $2`
	_, err := r.db.ExecContext(ctx, query, shopDomain, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// GetByShop retrieves all products of a shop.
func (r *ProductRepo) GetByShop(
	ctx context.Context,
	shopDomain string,
) ([]*domain.Product, error) {
	query := `
		SELECT shop_domain, product_id, title, description, vendor, product_type,
		       handle, image_url, status, variants, created_at, updated_at
		FROM products
		WHERE shop_domain = $1
		ORDER BY product_id
	`

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, shopDomain); err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	products := make([]*domain.Product, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// Count returns the number of products stored for a shop.
func (r *ProductRepo) Count(ctx context.Context, shopDomain string) (int, error) {
	query := `SELECT COUNT(*) FROM products WHERE shop_domain = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, shopDomain); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
