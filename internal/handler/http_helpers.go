package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/block"
	"github.com/storefront/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parseUintQuerySlice(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			parsed, err := strconv.ParseUint(trimmed, 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(parsed))
		}
	}
	return ids
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// respondServiceError maps service sentinel errors to HTTP statuses. Anything unknown is a 500 with fallback.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrCollectionNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrLayoutPageNotFound),
		errors.Is(err, block.ErrBlockNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPageSlugTaken),
		errors.Is(err, service.ErrCollectionSlugTaken),
		errors.Is(err, service.ErrProductSlugTaken),
		errors.Is(err, service.ErrCategorySlugTaken),
		errors.Is(err, service.ErrCategoryInUse),
		errors.Is(err, block.ErrDuplicateBlockID):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPageTitleMissing),
		errors.Is(err, service.ErrCollectionTitleMissing),
		errors.Is(err, service.ErrProductNameMissing),
		errors.Is(err, service.ErrProductInvalidPrice),
		errors.Is(err, service.ErrCategoryNameMissing),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidLocale):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
