package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/courier"
	"github.com/storefront/internal/service"
)

// HealthCheck 提供负载均衡与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
		"courier":  a.courier != nil,
	})
}

type systemSettingsRequest struct {
	SiteName                 string `json:"siteName"`
	Currency                 string `json:"currency"`
	Locale                   string `json:"locale"`
	AccentColor              string `json:"accentColor"`
	CollectionTemplatePageID uint   `json:"collectionTemplatePageId"`
	FooterText               string `json:"footerText"`
}

// GetSystemSettings 返回当前系统设置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": systemSettingsPayload(settings)})
}

// UpdateSystemSettings 保存系统设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var payload systemSettingsRequest
	if !bindJSON(c, &payload, "请填写完整的系统设置") {
		return
	}

	settings, err := a.system.UpdateSettings(service.SystemSettingsInput(payload))
	if err != nil {
		respondServiceError(c, err, "保存系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "系统设置已保存",
		"settings": systemSettingsPayload(settings),
	})
}

func systemSettingsPayload(settings service.SystemSettings) gin.H {
	return gin.H{
		"siteName":                 settings.SiteName,
		"currency":                 settings.Currency,
		"locale":                   settings.Locale,
		"accentColor":              settings.AccentColor,
		"collectionTemplatePageId": settings.CollectionTemplatePageID,
		"footerText":               settings.FooterText,
	}
}

// GetBuilderSchema 返回页面编辑器可用的区块类型与物流代理动作。
func (a *API) GetBuilderSchema(c *gin.Context) {
	kinds := make([]gin.H, 0, len(block.Kinds))
	for _, kind := range block.Kinds {
		kinds = append(kinds, gin.H{
			"type":      kind,
			"dataBound": kind.DataBound(),
			"marker":    kind.IsMarker(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"blocks":         kinds,
		"sortKeys":       []block.SortKey{block.SortNewest, block.SortPriceLow, block.SortPriceHigh, block.SortName},
		"courierActions": courier.Actions(),
	})
}
