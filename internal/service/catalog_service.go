package service

import (
	"context"
	"errors"
	"strings"

	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/render"
	"gorm.io/gorm"
)

var _ render.Catalog = (*CatalogService)(nil)

// CatalogService serves the read queries of data-bound blocks.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a CatalogService instance.
func NewCatalogService(gdb *gorm.DB) *CatalogService {
	return &CatalogService{db: gdb}
}

// ListCategories returns categories by name with their active product counts.
func (s *CatalogService) ListCategories(ctx context.Context, limit int) ([]block.Category, error) {
	var rows []struct {
		ID           uint
		Slug         string
		Name         string
		Description  string
		ImageURL     string
		ProductCount int
	}

	query := s.db.WithContext(ctx).
		Table("categories").
		Select("categories.id, categories.slug, categories.name, categories.description, categories.image_url, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.is_active = ? AND products.deleted_at IS NULL", true).
		Where("categories.deleted_at IS NULL").
		Group("categories.id, categories.slug, categories.name, categories.description, categories.image_url").
		Order("categories.name asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	categories := make([]block.Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, block.Category{
			ID:           r.ID,
			Slug:         r.Slug,
			Name:         r.Name,
			Description:  r.Description,
			ImageURL:     r.ImageURL,
			ProductCount: r.ProductCount,
		})
	}
	return categories, nil
}

// ResolveCollectionSlug maps a collection slug to its id.
func (s *CatalogService) ResolveCollectionSlug(ctx context.Context, slug string) (uint, error) {
	var collection db.Collection
	err := s.db.WithContext(ctx).Select("id").Where("slug = ?", strings.TrimSpace(slug)).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrCollectionNotFound
	}
	if err != nil {
		return 0, err
	}
	return collection.ID, nil
}

// CollectionProductIDs returns the member ids of a collection in no particular order.
func (s *CatalogService) CollectionProductIDs(ctx context.Context, collectionID uint) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).
		Model(&db.CollectionProduct{}).
		Where("collection_id = ?", collectionID).
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ProductsByIDs returns the active products among ids in id order.
func (s *CatalogService) ProductsByIDs(ctx context.Context, ids []uint) ([]block.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []db.Product
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Where("id IN ? AND is_active = ?", ids, true).
		Order("id asc").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return toBlockProducts(products), nil
}

// RecentProducts returns the newest active products, optionally within one category.
func (s *CatalogService) RecentProducts(ctx context.Context, categorySlug string, limit int) ([]block.Product, error) {
	query := s.db.WithContext(ctx).Preload("Category").Where("products.is_active = ?", true)
	if slug := strings.TrimSpace(categorySlug); slug != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id AND categories.deleted_at IS NULL").
			Where("categories.slug = ?", slug)
	}
	query = query.Order("products.created_at desc").Order("products.id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []db.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return toBlockProducts(products), nil
}

// ToBlockProduct projects a stored product onto the render model.
func ToBlockProduct(p db.Product) block.Product {
	out := block.Product{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Images:      p.Images,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
	if p.Category != nil {
		out.Category = p.Category.Name
	}
	return out
}

func toBlockProducts(products []db.Product) []block.Product {
	out := make([]block.Product, 0, len(products))
	for _, p := range products {
		out = append(out, ToBlockProduct(p))
	}
	return out
}
