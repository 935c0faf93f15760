package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/courier"
)

// ProxyCourier forwards one shipping call and relays the provider's reply unchanged.
func (a *API) ProxyCourier(c *gin.Context) {
	if a.courier == nil {
		respondError(c, http.StatusServiceUnavailable, "物流服务未配置")
		return
	}

	var req courier.Request
	if !bindJSON(c, &req, "请提供物流操作与参数") {
		return
	}

	resp, err := a.courier.Forward(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, courier.ErrUnknownAction), errors.Is(err, courier.ErrMissingParam):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, courier.ErrNotConfigured):
			respondError(c, http.StatusServiceUnavailable, "物流服务未配置")
		default:
			c.Error(err)
			respondError(c, http.StatusBadGateway, "物流服务暂不可用")
		}
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(resp.Status, contentType, resp.Body)
}
