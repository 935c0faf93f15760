package db

import (
	"github.com/storefront/internal/block"
	"gorm.io/gorm"
)

// Page status values.
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
)

// Page is a builder-managed page. Content holds the ordered block sequence as one JSON document.
type Page struct {
	gorm.Model
	Slug            string        `gorm:"uniqueIndex;not null"`
	Title           string        `gorm:"not null"`
	Content         []block.Block `gorm:"serializer:json;type:text"`
	MetaTitle       string
	MetaDescription string `gorm:"type:text"`
	MetaImage       string
	Status          string `gorm:"size:20;not null;default:draft;index"`
	IsHome          bool   `gorm:"not null;default:false;index"`
}

// Published reports whether the page is visible on the storefront.
func (p Page) Published() bool {
	return p.Status == PageStatusPublished
}
