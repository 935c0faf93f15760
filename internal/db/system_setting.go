package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySiteName 表示站点名称。
	SettingKeySiteName = "site_name"
	// SettingKeyCurrency 表示价格使用的 ISO 4217 货币代码。
	SettingKeyCurrency = "currency"
	// SettingKeyLocale 表示价格格式化使用的语言标签。
	SettingKeyLocale = "locale"
	// SettingKeyAccentColor 表示店铺主题色。
	SettingKeyAccentColor = "accent_color"
	// SettingKeyCollectionTemplatePageID 表示未单独配置布局的集合所共用的模板页。
	SettingKeyCollectionTemplatePageID = "collection_template_page_id"
	// SettingKeyFooterText 表示页脚文案。
	SettingKeyFooterText = "footer_text"
)
