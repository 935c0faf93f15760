package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/storefront/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCollectionNotFound     = errors.New("collection not found")
	ErrCollectionSlugTaken    = errors.New("collection slug already in use")
	ErrCollectionTitleMissing = errors.New("collection title is required")
	ErrLayoutPageNotFound     = errors.New("layout page not found")
)

// CollectionInput carries the editable fields of a collection.
type CollectionInput struct {
	Title       string
	Slug        string
	Description string
	ImageURL    string
	// PageID links a custom layout page. Nil uses the shared collection template.
	PageID *uint
}

// CollectionSummary is a collection with its member count.
type CollectionSummary struct {
	db.Collection
	ProductCount int64
}

// CollectionService wraps collection and membership operations.
type CollectionService struct {
	db *gorm.DB
}

// NewCollectionService creates a CollectionService instance.
func NewCollectionService(gdb *gorm.DB) *CollectionService {
	return &CollectionService{db: gdb}
}

// List returns collections ordered by title, with product counts.
func (s *CollectionService) List() ([]CollectionSummary, error) {
	var collections []db.Collection
	if err := s.db.Order("title asc").Order("id asc").Find(&collections).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		CollectionID uint
		Count        int64
	}
	if err := s.db.Model(&db.CollectionProduct{}).
		Select("collection_id, COUNT(*) AS count").
		Group("collection_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.CollectionID] = c.Count
	}

	summaries := make([]CollectionSummary, 0, len(collections))
	for _, c := range collections {
		summaries = append(summaries, CollectionSummary{Collection: c, ProductCount: byID[c.ID]})
	}
	return summaries, nil
}

// Get fetches a collection and its products.
func (s *CollectionService) Get(id uint) (*db.Collection, error) {
	return s.first(s.db.Preload("Products", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("products.id asc")
	}), "id = ?", id)
}

// GetBySlug fetches a collection without its products.
func (s *CollectionService) GetBySlug(slug string) (*db.Collection, error) {
	return s.first(s.db, "slug = ?", strings.TrimSpace(slug))
}

func (s *CollectionService) first(query *gorm.DB, cond string, arg any) (*db.Collection, error) {
	var collection db.Collection
	if err := query.Where(cond, arg).First(&collection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	return &collection, nil
}

// Create stores a new collection.
func (s *CollectionService) Create(input CollectionInput) (*db.Collection, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrCollectionTitleMissing
	}

	collection := db.Collection{
		Title:       title,
		Slug:        slugFor(input.Slug, title, "collection"),
		Description: strings.TrimSpace(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		PageID:      input.PageID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkLayoutPage(tx, input.PageID); err != nil {
			return err
		}
		taken, err := slugTaken(tx, &db.Collection{}, collection.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrCollectionSlugTaken
		}
		return tx.Omit("Products").Create(&collection).Error
	})
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// Update replaces the editable fields of a collection. Membership is unchanged.
func (s *CollectionService) Update(id uint, input CollectionInput) (*db.Collection, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrCollectionTitleMissing
	}

	var collection *db.Collection
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if err := checkLayoutPage(tx, input.PageID); err != nil {
			return err
		}

		existing.Title = title
		existing.Slug = slugFor(input.Slug, existing.Slug, "collection")
		existing.Description = strings.TrimSpace(input.Description)
		existing.ImageURL = strings.TrimSpace(input.ImageURL)
		existing.PageID = input.PageID

		taken, err := slugTaken(tx, &db.Collection{}, existing.Slug, existing.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrCollectionSlugTaken
		}
		if err := tx.Omit("Products", "Page").Save(existing).Error; err != nil {
			return err
		}
		collection = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// Delete removes a collection and its membership rows. Products are kept.
func (s *CollectionService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.first(tx, "id = ?", id); err != nil {
			return err
		}
		if err := tx.Where("collection_id = ?", id).Delete(&db.CollectionProduct{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&db.Collection{}, id).Error
	})
}

// SetProducts replaces the membership of a collection.
func (s *CollectionService) SetProducts(id uint, productIDs []uint) error {
	ids := uniqueIDs(productIDs)
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.first(tx, "id = ?", id); err != nil {
			return err
		}
		if err := ensureProductsExist(tx, ids); err != nil {
			return err
		}
		if err := tx.Where("collection_id = ?", id).Delete(&db.CollectionProduct{}).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		rows := make([]db.CollectionProduct, 0, len(ids))
		for _, pid := range ids {
			rows = append(rows, db.CollectionProduct{CollectionID: id, ProductID: pid})
		}
		return tx.Create(&rows).Error
	})
}

// AddProduct adds one product. Adding an existing member is a no-op.
func (s *CollectionService) AddProduct(id, productID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.first(tx, "id = ?", id); err != nil {
			return err
		}
		if err := ensureProductsExist(tx, []uint{productID}); err != nil {
			return err
		}
		row := db.CollectionProduct{CollectionID: id, ProductID: productID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	})
}

// RemoveProduct removes one product from the collection.
func (s *CollectionService) RemoveProduct(id, productID uint) error {
	if _, err := s.first(s.db, "id = ?", id); err != nil {
		return err
	}
	return s.db.Where("collection_id = ? AND product_id = ?", id, productID).
		Delete(&db.CollectionProduct{}).Error
}

// LayoutPage returns the page a collection is rendered with: the linked page when it
// still exists, else the shared template page, else nil.
func (s *CollectionService) LayoutPage(collection *db.Collection) (*db.Page, error) {
	if collection.PageID != nil {
		page, err := s.loadPage(*collection.PageID)
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return page, err
		}
	}

	var setting db.SystemSetting
	err := s.db.Where("key = ?", db.SettingKeyCollectionTemplatePageID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	templateID, convErr := strconv.ParseUint(strings.TrimSpace(setting.Value), 10, 64)
	if convErr != nil || templateID == 0 {
		return nil, nil
	}
	page, err := s.loadPage(uint(templateID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return page, err
}

func (s *CollectionService) loadPage(id uint) (*db.Page, error) {
	var page db.Page
	if err := s.db.First(&page, id).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

func checkLayoutPage(tx *gorm.DB, pageID *uint) error {
	if pageID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Page{}).Where("id = ?", *pageID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrLayoutPageNotFound
	}
	return nil
}

func ensureProductsExist(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&db.Product{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return ErrProductNotFound
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
