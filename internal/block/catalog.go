package block

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Product is the read-only view of a product used by data-bound blocks.
type Product struct {
	ID          uint
	Name        string
	Slug        string
	Description string
	Price       float64
	Images      []string
	Category    string
	Stock       int
	CreatedAt   time.Time
}

// FeaturedImage returns the first image, or "" when there is none.
func (p Product) FeaturedImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Category is the read-only view of a category tile.
type Category struct {
	ID           uint
	Slug         string
	Name         string
	Description  string
	ImageURL     string
	ProductCount int
}

// SortKey selects the single key products are ordered by.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortName      SortKey = "name"
)

// ParseSortKey normalises a configured sort key. Unknown and empty values mean newest first.
func ParseSortKey(raw string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	case SortName:
		return SortName
	default:
		return SortNewest
	}
}

// SortProducts orders products in place by key. The sort is stable: equal keys keep their fetch order.
func SortProducts(products []Product, key SortKey) {
	switch ParseSortKey(string(key)) {
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case SortName:
		slices.SortStableFunc(products, func(a, b Product) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	default:
		slices.SortStableFunc(products, func(a, b Product) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}
