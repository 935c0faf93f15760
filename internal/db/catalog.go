package db

import (
	"time"

	"gorm.io/gorm"
)

// Category groups products for navigation.
type Category struct {
	gorm.Model
	Slug        string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	ImageURL    string
	Products    []Product
}

// Product is a sellable item. The first image is the featured one.
type Product struct {
	gorm.Model
	Name        string   `gorm:"not null"`
	Slug        string   `gorm:"uniqueIndex;not null"`
	Description string   `gorm:"type:text"`
	Price       float64  `gorm:"not null;default:0"`
	Images      []string `gorm:"serializer:json;type:text"`
	CategoryID  *uint    `gorm:"index"`
	Category    *Category
	Stock       int  `gorm:"not null;default:0"`
	IsActive    bool `gorm:"not null;default:true;index"`
}

// Collection groups products. PageID links a custom layout page; without one the
// shared collection template page is used.
type Collection struct {
	gorm.Model
	Slug        string `gorm:"uniqueIndex;not null"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	ImageURL    string
	PageID      *uint `gorm:"index"`
	Page        *Page
	Products    []Product `gorm:"many2many:collection_products;"`
}

// CollectionProduct is the membership join row.
type CollectionProduct struct {
	CollectionID uint `gorm:"primaryKey"`
	ProductID    uint `gorm:"primaryKey"`
	CreatedAt    time.Time
}

// TableName matches the many2many join table name.
func (CollectionProduct) TableName() string {
	return "collection_products"
}
