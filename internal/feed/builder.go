// Package feed builds merchant feed XML documents from stored products and
// orchestrates the periodic regeneration of every shop's feeds.
package feed

import (
	"encoding/xml"
	"fmt"

	"github.com/feedhq/feedmanager/internal/core/domain"
)

const merchantNamespace = "http://base.google.com/ns/1.0"

// rss is the RSS 2.0 envelope both Google Merchant and Facebook catalog
// feeds share.
type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	NS      string   `xml:"xmlns:g,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Items       []item `xml:"item"`
}

type item struct {
	ID           string `xml:"g:id"`
	Title        string `xml:"g:title"`
	Description  string `xml:"g:description"`
	Link         string `xml:"g:link"`
	ImageLink    string `xml:"g:image_link,omitempty"`
	Price        string `xml:"g:price"`
	Availability string `xml:"g:availability"`
	Condition    string `xml:"g:condition"`
	Brand        string `xml:"g:brand,omitempty"`
	ProductType  string `xml:"g:product_type,omitempty"`
	GTIN         string `xml:"g:gtin,omitempty"`
	MPN          string `xml:"g:mpn,omitempty"`
}

// Builder renders product lists into merchant feed XML.
type Builder struct {
	currency string
}

// NewBuilder creates a feed builder. Prices are emitted in the given ISO 4217
// currency code.
func NewBuilder(currency string) *Builder {
	if currency == "" {
		currency = "USD"
	}
	return &Builder{currency: currency}
}

// Build renders the feed document for a shop. Products that are not active or
// have no variants are skipped. Output is deterministic for a given input.
func (b *Builder) Build(
	shop *domain.Shop,
	format domain.FeedFormat,
	products []*domain.Product,
) ([]byte, int, error) {
	ch := channel{
		Title:       shop.Domain,
		Link:        "https://" + shop.Domain,
		Description: fmt.Sprintf("%s product feed for %s", format, shop.Domain),
	}

	for _, p := range products {
		if p.Status != domain.ProductStatusActive || len(p.Variants) == 0 {
			continue
		}
		ch.Items = append(ch.Items, b.buildItem(p))
	}

	doc := rss{
		Version: "2.0",
		NS:      merchantNamespace,
		Channel: ch,
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal feed: %w", err)
	}

	return append([]byte(xml.Header), body...), len(ch.Items), nil
}

func (b *Builder) buildItem(p *domain.Product) item {
	lead := p.Variants[0]

	availability := "out of stock"
	if p.InStock() {
		availability = "in stock"
	}

	return item{
		ID:           fmt.Sprintf("%d", p.ID),
		Title:        p.Title,
		Description:  p.Description,
		Link:         p.URL(),
		ImageLink:    p.ImageURL,
		Price:        fmt.Sprintf("%s %s", lead.Price, b.currency),
		Availability: availability,
		Condition:    "new",
		Brand:        p.Vendor,
		ProductType:  p.ProductType,
		GTIN:         lead.Barcode,
		MPN:          lead.SKU,
	}
}
