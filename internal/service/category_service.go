package service

import (
	"errors"
	"strings"

	"github.com/storefront/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategorySlugTaken   = errors.New("category slug already in use")
	ErrCategoryNameMissing = errors.New("category name is required")
	ErrCategoryInUse       = errors.New("category is associated with products")
)

// CategoryInput carries the editable fields of a category.
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ImageURL    string
}

// CategoryService wraps category operations.
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns categories ordered by name.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("name asc").Order("id asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetBySlug fetches a category by slug.
func (s *CategoryService) GetBySlug(slug string) (*db.Category, error) {
	return s.first(s.db, "slug = ?", strings.TrimSpace(slug))
}

func (s *CategoryService) first(query *gorm.DB, cond string, arg any) (*db.Category, error) {
	var category db.Category
	if err := query.Where(cond, arg).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create stores a new category.
func (s *CategoryService) Create(input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCategoryNameMissing
	}
	category := db.Category{
		Name:        name,
		Slug:        slugFor(input.Slug, name, "category"),
		Description: strings.TrimSpace(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := slugTaken(tx, &db.Category{}, category.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrCategorySlugTaken
		}
		return tx.Create(&category).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update changes the editable fields of a category.
func (s *CategoryService) Update(id uint, input CategoryInput) (*db.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCategoryNameMissing
	}

	var category *db.Category
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		existing.Name = name
		existing.Slug = slugFor(input.Slug, existing.Slug, "category")
		existing.Description = strings.TrimSpace(input.Description)
		existing.ImageURL = strings.TrimSpace(input.ImageURL)

		taken, err := slugTaken(tx, &db.Category{}, existing.Slug, existing.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrCategorySlugTaken
		}
		if err := tx.Omit("Products").Save(existing).Error; err != nil {
			return err
		}
		category = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category that no product references.
func (s *CategoryService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.first(tx, "id = ?", id); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&db.Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}
		return tx.Unscoped().Delete(&db.Category{}, id).Error
	})
}
