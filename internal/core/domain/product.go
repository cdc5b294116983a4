package domain

import (
	"time"
)

// Product represents a storefront product as delivered by the Admin API.
type Product struct {
	ID          uint64
	ShopDomain  string
	Title       string
	Description string
	Vendor      string
	ProductType string
	Handle      string
	ImageURL    string
	Status      ProductStatus
	Variants    []Variant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// Variant is a purchasable variation of a product.
type Variant struct {
	ID        uint64
	SKU       string
	Price     string
	Inventory int
	Barcode   string
}

// URL returns the public storefront URL of the product.
func (p *Product) URL() string {
	return "https://" + p.ShopDomain + "/products/" + p.Handle
}

// InStock reports whether any variant has inventory available.
func (p *Product) InStock() bool {
	for _, v := range p.Variants {
		if v.Inventory > 0 {
			return true
		}
	}
	return false
}
