// Package shopify is the Admin API collaborator: a REST client for product
// sync and the HMAC verification used by the webhook endpoints.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
)

const defaultAPIVersion = "2024-07"

// APIError is a failed Admin API call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api http %d: %s", e.Status, e.Body)
}

// Client is a Shopify Admin REST API client.
type Client struct {
	apiVersion string
	httpClient *http.Client
}

// NewClient creates a new Admin API client.
func NewClient(apiVersion string, timeout time.Duration) *Client {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// apiProduct mirrors the Admin API product payload.
type apiProduct struct {
	ID          uint64       `json:"id"`
	Title       string       `json:"title"`
	BodyHTML    string       `json:"body_html"`
	Vendor      string       `json:"vendor"`
	ProductType string       `json:"product_type"`
	Handle      string       `json:"handle"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Image       *apiImage    `json:"image"`
	Variants    []apiVariant `json:"variants"`
}

type apiImage struct {
	Src string `json:"src"`
}

type apiVariant struct {
	ID                uint64 `json:"id"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
	Barcode           string `json:"barcode"`
}

func (p *apiProduct) toDomain(shopDomain string) *domain.Product {
	product := &domain.Product{
		ID:          p.ID,
		ShopDomain:  shopDomain,
		Title:       p.Title,
		Description: p.BodyHTML,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Handle:      p.Handle,
		Status:      domain.ProductStatus(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Image != nil {
		product.ImageURL = p.Image.Src
	}
	for _, v := range p.Variants {
		product.Variants = append(product.Variants, domain.Variant{
			ID:        v.ID,
			SKU:       v.SKU,
			Price:     v.Price,
			Inventory: v.InventoryQuantity,
			Barcode:   v.Barcode,
		})
	}
	return product
}

// ParseProduct decodes a webhook product payload into the domain model.
func ParseProduct(shopDomain string, payload []byte) (*domain.Product, error) {
	var p apiProduct
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode product payload: %w", err)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("product payload missing id")
	}
	return p.toDomain(shopDomain), nil
}

// ParseProductID extracts just the product ID from a webhook payload, as sent
// by products/delete deliveries.
func ParseProductID(payload []byte) (uint64, error) {
	var p struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return 0, fmt.Errorf("failed to decode payload: %w", err)
	}
	if p.ID == 0 {
		return 0, fmt.Errorf("payload missing id")
	}
	return p.ID, nil
}

// FetchProducts retrieves all products of a shop, following page_info
// pagination until exhausted.
func (c *Client) FetchProducts(
	ctx context.Context,
	shop *domain.Shop,
) ([]*domain.Product, error) {
	endpoint := fmt.Sprintf(
		"https://%s/admin/api/%s/products.json?limit=250",
		shop.Domain,
		c.apiVersion,
	)

	var products []*domain.Product
	for endpoint != "" {
		page, next, err := c.fetchPage(ctx, shop, endpoint)
		if err != nil {
			return nil, err
		}
		products = append(products, page...)
		endpoint = next
	}
	return products, nil
}

func (c *Client) fetchPage(
	ctx context.Context,
	shop *domain.Shop,
	endpoint string,
) (products []*domain.Product, next string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", shop.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("admin api call: %w", err)
	}
	defer resp.Body.Close()

	// The Admin API signals rate limiting with 429 and a Retry-After header.
	if resp.StatusCode == http.StatusTooManyRequests {
		delay := retryAfter(resp.Header.Get("Retry-After"))
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(delay):
		}
		return c.fetchPage(ctx, shop, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var decoded struct {
		Products []apiProduct `json:"products"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, "", fmt.Errorf("decode products: %w", err)
	}

	for i := range decoded.Products {
		products = append(products, decoded.Products[i].toDomain(shop.Domain))
	}

	return products, nextPageURL(resp.Header.Get("Link")), nil
}

var nextLinkRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// nextPageURL extracts the rel="next" URL from an Admin API Link header.
func nextPageURL(link string) string {
	m := nextLinkRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	if _, err := url.Parse(m[1]); err != nil {
		return ""
	}
	return m[1]
}

func retryAfter(header string) time.Duration {
	if s, err := strconv.ParseFloat(header, 64); err == nil && s > 0 {
		return time.Duration(s * float64(time.Second))
	}
	return 2 * time.Second
}
