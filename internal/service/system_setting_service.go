package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/storefront/internal/block"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/render"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSiteName = "Storefront"
	defaultCurrency = "USD"
	defaultLocale   = "en-US"
)

var (
	// ErrInvalidCurrency 表示货币代码不是合法的 ISO 4217 代码。
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrInvalidLocale 表示语言标签无法解析。
	ErrInvalidLocale = errors.New("invalid locale")
)

// SystemSettings 描述后台可配置的店铺信息。
type SystemSettings struct {
	SiteName                 string
	Currency                 string
	Locale                   string
	AccentColor              string
	CollectionTemplatePageID uint
	FooterText               string
}

// SystemSettingsInput 用于更新系统设置。
type SystemSettingsInput struct {
	SiteName                 string
	Currency                 string
	Locale                   string
	AccentColor              string
	CollectionTemplatePageID uint
	FooterText               string
}

// SystemSettingService 提供系统设置的读取与更新能力。
type SystemSettingService struct {
	db *gorm.DB
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyCurrency,
	db.SettingKeyLocale,
	db.SettingKeyAccentColor,
	db.SettingKeyCollectionTemplatePageID,
	db.SettingKeyFooterText,
}

// GetSettings 读取系统设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{SiteName: defaultSiteName, Currency: defaultCurrency, Locale: defaultLocale}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		value := strings.TrimSpace(record.Value)
		switch record.Key {
		case db.SettingKeySiteName:
			if value != "" {
				result.SiteName = value
			}
		case db.SettingKeyCurrency:
			if value != "" {
				result.Currency = value
			}
		case db.SettingKeyLocale:
			if value != "" {
				result.Locale = value
			}
		case db.SettingKeyAccentColor:
			result.AccentColor = block.SanitizeColor(value)
		case db.SettingKeyCollectionTemplatePageID:
			if id, err := strconv.ParseUint(value, 10, 64); err == nil {
				result.CollectionTemplatePageID = uint(id)
			}
		case db.SettingKeyFooterText:
			result.FooterText = record.Value
		}
	}

	return result, nil
}

// UpdateSettings 保存系统设置，未填写的站点名称、货币与语言回退默认值。
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	sanitized := SystemSettings{
		SiteName:                 strings.TrimSpace(input.SiteName),
		Currency:                 strings.ToUpper(strings.TrimSpace(input.Currency)),
		Locale:                   strings.TrimSpace(input.Locale),
		AccentColor:              block.SanitizeColor(input.AccentColor),
		CollectionTemplatePageID: input.CollectionTemplatePageID,
		FooterText:               strings.TrimSpace(input.FooterText),
	}
	if sanitized.SiteName == "" {
		sanitized.SiteName = defaultSiteName
	}
	if sanitized.Currency == "" {
		sanitized.Currency = defaultCurrency
	}
	if _, err := currency.ParseISO(sanitized.Currency); err != nil {
		return SystemSettings{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, sanitized.Currency)
	}
	if sanitized.Locale == "" {
		sanitized.Locale = defaultLocale
	}
	tag, err := language.Parse(sanitized.Locale)
	if err != nil {
		return SystemSettings{}, fmt.Errorf("%w: %s", ErrInvalidLocale, sanitized.Locale)
	}
	sanitized.Locale = tag.String()

	templateID := ""
	if sanitized.CollectionTemplatePageID != 0 {
		if err := checkLayoutPage(s.db, &sanitized.CollectionTemplatePageID); err != nil {
			return SystemSettings{}, err
		}
		templateID = strconv.FormatUint(uint64(sanitized.CollectionTemplatePageID), 10)
	}

	values := map[string]string{
		db.SettingKeySiteName:                 sanitized.SiteName,
		db.SettingKeyCurrency:                 sanitized.Currency,
		db.SettingKeyLocale:                   sanitized.Locale,
		db.SettingKeyAccentColor:              sanitized.AccentColor,
		db.SettingKeyCollectionTemplatePageID: templateID,
		db.SettingKeyFooterText:               sanitized.FooterText,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, key := range settingKeys {
			if err := upsertSetting(tx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return sanitized, nil
}

// RenderSettings 返回区块渲染所需的站点设置。
func (s SystemSettings) RenderSettings() render.Settings {
	return render.Settings{
		SiteName:    s.SiteName,
		Currency:    s.Currency,
		Locale:      s.Locale,
		AccentColor: s.AccentColor,
	}
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
