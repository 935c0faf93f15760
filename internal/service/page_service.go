package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound     = errors.New("page not found")
	ErrPageSlugTaken    = errors.New("page slug already in use")
	ErrPageTitleMissing = errors.New("page title is required")
	ErrInvalidStatus    = errors.New("invalid page status")
)

// PageInput carries the editable fields of a page.
type PageInput struct {
	Title           string
	Slug            string
	MetaTitle       string
	MetaDescription string
	MetaImage       string
	Status          string
	// Content replaces the block sequence when non-nil.
	Content []block.Block
}

// PageService provides access to builder pages and their block sequences.
type PageService struct {
	db    *gorm.DB
	newID func() string
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb, newID: uuid.NewString}
}

// List returns pages ordered by title. An empty status lists every page.
func (s *PageService) List(status string) ([]db.Page, error) {
	query := s.db.Order("title asc").Order("id asc")
	if status != "" {
		normalized, err := normalizeStatus(status)
		if err != nil {
			return nil, err
		}
		query = query.Where("status = ?", normalized)
	}
	var pages []db.Page
	if err := query.Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Get fetches a page by id.
func (s *PageService) Get(id uint) (*db.Page, error) {
	return s.first(s.db, "id = ?", id)
}

// GetBySlug fetches a page for a given slug.
func (s *PageService) GetBySlug(slug string) (*db.Page, error) {
	return s.first(s.db, "slug = ?", strings.TrimSpace(slug))
}

// GetPublishedBySlug fetches a published page for a given slug.
func (s *PageService) GetPublishedBySlug(slug string) (*db.Page, error) {
	return s.first(s.db.Where("status = ?", db.PageStatusPublished), "slug = ?", strings.TrimSpace(slug))
}

// GetHome returns the published home page.
func (s *PageService) GetHome() (*db.Page, error) {
	return s.first(s.db.Where("status = ?", db.PageStatusPublished), "is_home = ?", true)
}

func (s *PageService) first(query *gorm.DB, cond string, arg any) (*db.Page, error) {
	var page db.Page
	if err := query.Where(cond, arg).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Create stores a new page. Blocks without ids get one.
func (s *PageService) Create(input PageInput) (*db.Page, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrPageTitleMissing
	}
	status := db.PageStatusDraft
	if input.Status != "" {
		normalized, err := normalizeStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = normalized
	}
	blocks, err := s.prepareBlocks(input.Content)
	if err != nil {
		return nil, err
	}

	page := db.Page{
		Title:           title,
		Slug:            slugFor(input.Slug, title, "page"),
		Content:         blocks,
		MetaTitle:       strings.TrimSpace(input.MetaTitle),
		MetaDescription: strings.TrimSpace(input.MetaDescription),
		MetaImage:       strings.TrimSpace(input.MetaImage),
		Status:          status,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		taken, err := slugTaken(tx, &db.Page{}, page.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrPageSlugTaken
		}
		return tx.Create(&page).Error
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Update replaces the editable fields of a page.
func (s *PageService) Update(id uint, input PageInput) (*db.Page, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrPageTitleMissing
	}

	var page *db.Page
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.first(tx, "id = ?", id)
		if err != nil {
			return err
		}

		existing.Title = title
		existing.Slug = slugFor(input.Slug, existing.Slug, "page")
		existing.MetaTitle = strings.TrimSpace(input.MetaTitle)
		existing.MetaDescription = strings.TrimSpace(input.MetaDescription)
		existing.MetaImage = strings.TrimSpace(input.MetaImage)
		if input.Status != "" {
			status, err := normalizeStatus(input.Status)
			if err != nil {
				return err
			}
			existing.Status = status
		}
		if input.Content != nil {
			blocks, err := s.prepareBlocks(input.Content)
			if err != nil {
				return err
			}
			existing.Content = blocks
		}
		if !existing.Published() {
			existing.IsHome = false
		}

		taken, err := slugTaken(tx, &db.Page{}, existing.Slug, existing.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrPageSlugTaken
		}
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		page = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Delete removes a page and unlinks collections that used it as their layout.
func (s *PageService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.first(tx, "id = ?", id); err != nil {
			return err
		}
		if err := tx.Model(&db.Collection{}).Where("page_id = ?", id).Update("page_id", nil).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&db.Page{}, id).Error
	})
}

// SaveBlocks replaces the whole block sequence of a page. The last writer wins.
func (s *PageService) SaveBlocks(id uint, blocks []block.Block) (*db.Page, error) {
	prepared, err := s.prepareBlocks(blocks)
	if err != nil {
		return nil, err
	}
	return s.mutateBlocks(id, func([]block.Block) ([]block.Block, error) {
		return prepared, nil
	})
}

// InsertBlock inserts b at index. The index is clamped to the sequence bounds.
func (s *PageService) InsertBlock(id uint, index int, b block.Block) (*db.Page, error) {
	return s.mutateBlocks(id, func(current []block.Block) ([]block.Block, error) {
		next := block.EnsureIDs([]block.Block{b}, s.newID)[0]
		if block.Find(current, next.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", block.ErrDuplicateBlockID, next.ID)
		}
		return block.Insert(current, index, next), nil
	})
}

// MoveBlock moves the block with blockID to position to.
func (s *PageService) MoveBlock(id uint, blockID string, to int) (*db.Page, error) {
	return s.mutateBlocks(id, func(current []block.Block) ([]block.Block, error) {
		return block.Move(current, blockID, to)
	})
}

// RemoveBlock deletes the block with blockID.
func (s *PageService) RemoveBlock(id uint, blockID string) (*db.Page, error) {
	return s.mutateBlocks(id, func(current []block.Block) ([]block.Block, error) {
		return block.Remove(current, blockID)
	})
}

func (s *PageService) mutateBlocks(id uint, fn func([]block.Block) ([]block.Block, error)) (*db.Page, error) {
	var page *db.Page
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		next, err := fn(existing.Content)
		if err != nil {
			return err
		}
		existing.Content = next
		if err := tx.Save(existing).Error; err != nil {
			return err
		}
		page = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// SetHome marks a published page as the home page and clears the previous one.
func (s *PageService) SetHome(id uint) (*db.Page, error) {
	var page *db.Page
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.first(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if !existing.Published() {
			return fmt.Errorf("%w: home page must be published", ErrInvalidStatus)
		}
		if err := tx.Model(&db.Page{}).Where("is_home = ? AND id <> ?", true, id).Update("is_home", false).Error; err != nil {
			return err
		}
		if err := tx.Model(existing).Update("is_home", true).Error; err != nil {
			return err
		}
		existing.IsHome = true
		page = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *PageService) prepareBlocks(blocks []block.Block) ([]block.Block, error) {
	prepared := block.EnsureIDs(blocks, s.newID)
	if err := block.ValidateIDs(prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

func normalizeStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case db.PageStatusDraft:
		return db.PageStatusDraft, nil
	case db.PageStatusPublished:
		return db.PageStatusPublished, nil
	default:
		return "", ErrInvalidStatus
	}
}

// slugTaken reports whether another row of model already uses slug.
func slugTaken(tx *gorm.DB, model any, slug string, selfID uint) (bool, error) {
	var count int64
	query := tx.Model(model).Where("slug = ?", slug)
	if selfID != 0 {
		query = query.Where("id <> ?", selfID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
