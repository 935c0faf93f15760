package service

import (
	"errors"
	"math"
	"strings"

	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductSlugTaken    = errors.New("product slug already in use")
	ErrProductNameMissing  = errors.New("product name is required")
	ErrProductInvalidPrice = errors.New("product price must be a non-negative number")
)

const (
	defaultProductsPerPage = 24
	maxProductsPerPage     = 100
)

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string
	Slug        string
	Description string
	Price       float64
	Images      []string
	CategoryID  *uint
	Stock       int
	IsActive    bool
}

// ProductFilter narrows and orders a product listing.
type ProductFilter struct {
	CategorySlug    string
	Query           string
	Sort            block.SortKey
	Page            int
	PerPage         int
	IncludeInactive bool
	// IDs restricts the listing to these products when non-empty.
	IDs []uint
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items      []db.Product
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// ProductService wraps product operations.
type ProductService struct {
	db *gorm.DB
}

// NewProductService creates a ProductService instance.
func NewProductService(gdb *gorm.DB) *ProductService {
	return &ProductService{db: gdb}
}

// List returns one page of products matching filter.
func (s *ProductService) List(filter ProductFilter) (ProductPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultProductsPerPage
	}
	if perPage > maxProductsPerPage {
		perPage = maxProductsPerPage
	}

	query := s.db.Model(&db.Product{})
	if !filter.IncludeInactive {
		query = query.Where("products.is_active = ?", true)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("products.id IN ?", filter.IDs)
	}
	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id AND categories.deleted_at IS NULL").
			Where("categories.slug = ?", slug)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return ProductPage{}, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	// Pages past the end show the last page.
	if page > totalPages {
		page = max(totalPages, 1)
	}

	var items []db.Product
	if err := applyProductOrder(query, filter.Sort).
		Preload("Category").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error; err != nil {
		return ProductPage{}, err
	}

	return ProductPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

func applyProductOrder(query *gorm.DB, key block.SortKey) *gorm.DB {
	switch key {
	case block.SortPriceLow:
		return query.Order("products.price asc").Order("products.id asc")
	case block.SortPriceHigh:
		return query.Order("products.price desc").Order("products.id asc")
	case block.SortName:
		return query.Order("LOWER(products.name) asc").Order("products.id asc")
	default:
		return query.Order("products.created_at desc").Order("products.id desc")
	}
}

// Get fetches a product by id.
func (s *ProductService) Get(id uint) (*db.Product, error) {
	return s.first(s.db.Preload("Category"), "id = ?", id)
}

// GetBySlug fetches an active product by slug.
func (s *ProductService) GetBySlug(slug string) (*db.Product, error) {
	return s.first(s.db.Preload("Category").Where("is_active = ?", true), "slug = ?", strings.TrimSpace(slug))
}

func (s *ProductService) first(query *gorm.DB, cond string, arg any) (*db.Product, error) {
	var product db.Product
	if err := query.Where(cond, arg).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Create stores a new product.
func (s *ProductService) Create(input ProductInput) (*db.Product, error) {
	name, err := validateProductInput(input)
	if err != nil {
		return nil, err
	}

	product := db.Product{
		Name:        name,
		Slug:        slugFor(input.Slug, name, "product"),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Images:      cleanImages(input.Images),
		CategoryID:  input.CategoryID,
		Stock:       max(input.Stock, 0),
		IsActive:    input.IsActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, input.CategoryID); err != nil {
			return err
		}
		taken, err := slugTaken(tx, &db.Product{}, product.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrProductSlugTaken
		}
		if err := tx.Omit("Category").Create(&product).Error; err != nil {
			return err
		}
		// gorm skips zero values that have a column default.
		if !input.IsActive {
			return tx.Model(&product).Update("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update replaces the editable fields of a product.
func (s *ProductService) Update(id uint, input ProductInput) (*db.Product, error) {
	name, err := validateProductInput(input)
	if err != nil {
		return nil, err
	}

	var product *db.Product
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if err := checkCategory(tx, input.CategoryID); err != nil {
			return err
		}

		existing.Name = name
		existing.Slug = slugFor(input.Slug, existing.Slug, "product")
		existing.Description = strings.TrimSpace(input.Description)
		existing.Price = input.Price
		existing.Images = cleanImages(input.Images)
		existing.CategoryID = input.CategoryID
		existing.Stock = max(input.Stock, 0)
		existing.IsActive = input.IsActive

		taken, err := slugTaken(tx, &db.Product{}, existing.Slug, existing.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrProductSlugTaken
		}
		if err := tx.Omit("Category").Save(existing).Error; err != nil {
			return err
		}
		product = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product and its collection memberships.
func (s *ProductService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.first(tx, "id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&db.CollectionProduct{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&db.Product{}, id).Error
	})
}

func validateProductInput(input ProductInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", ErrProductNameMissing
	}
	if input.Price < 0 || math.IsNaN(input.Price) || math.IsInf(input.Price, 0) {
		return "", ErrProductInvalidPrice
	}
	return name, nil
}

func checkCategory(tx *gorm.DB, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
