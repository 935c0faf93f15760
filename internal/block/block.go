package block

import (
	"strconv"
	"strings"
)

// Kind identifies the renderer used for a block.
type Kind string

const (
	KindHero             Kind = "hero"
	KindCategoryGrid     Kind = "category-grid"
	KindCollectionGrid   Kind = "collection-grid"
	KindFeaturedProducts Kind = "featured-products"
	KindRichText         Kind = "rich-text"
	KindImageBanner      Kind = "image-banner"
	KindSpacer           Kind = "spacer"
	// KindProductGrid marks where a collection page's product listing goes. It is never rendered.
	KindProductGrid Kind = "product-grid"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{
	KindHero,
	KindCategoryGrid,
	KindCollectionGrid,
	KindFeaturedProducts,
	KindRichText,
	KindImageBanner,
	KindSpacer,
	KindProductGrid,
}

// Known reports whether k belongs to the closed set of block kinds.
func (k Kind) Known() bool {
	switch k {
	case KindHero, KindCategoryGrid, KindCollectionGrid, KindFeaturedProducts,
		KindRichText, KindImageBanner, KindSpacer, KindProductGrid:
		return true
	}
	return false
}

// IsMarker reports whether k is a structural placeholder.
func (k Kind) IsMarker() bool {
	return k == KindProductGrid
}

// DataBound reports whether rendering k issues read queries.
func (k Kind) DataBound() bool {
	switch k {
	case KindCategoryGrid, KindCollectionGrid, KindFeaturedProducts:
		return true
	}
	return false
}

// Block is one entry of a page's ordered content sequence.
type Block struct {
	ID      string  `json:"id"`
	Type    Kind    `json:"type"`
	Content Content `json:"content"`
}

// Content is the opaque configuration payload of a block.
type Content map[string]any

// Has reports whether key is present with a non-nil value.
func (c Content) Has(key string) bool {
	if c == nil {
		return false
	}
	v, ok := c[key]
	return ok && v != nil
}

// String returns the trimmed string at key, or fallback when it is missing or blank.
func (c Content) String(key, fallback string) string {
	if !c.Has(key) {
		return fallback
	}
	switch v := c[key].(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return fallback
}

// Int coerces the value at key to an int. JSON numbers and numeric strings are accepted.
func (c Content) Int(key string, fallback int) int {
	if !c.Has(key) {
		return fallback
	}
	switch v := c[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return int(f)
		}
	}
	return fallback
}

// Float coerces the value at key to a float64.
func (c Content) Float(key string, fallback float64) float64 {
	if !c.Has(key) {
		return fallback
	}
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

// Bool coerces the value at key to a bool. "true"/"false" strings are accepted.
func (c Content) Bool(key string, fallback bool) bool {
	if !c.Has(key) {
		return fallback
	}
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	case float64:
		return v != 0
	}
	return fallback
}

// Clone returns a shallow copy of the payload.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
