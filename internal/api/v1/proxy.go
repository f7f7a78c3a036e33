package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
	"github.com/proxynest/proxynest/internal/types"
)

type ProxyHandler struct {
	proxyService service.ProxyService
	logger       *logger.Logger
}

func NewProxyHandler(proxyService service.ProxyService, logger *logger.Logger) *ProxyHandler {
	return &ProxyHandler{
		proxyService: proxyService,
		logger:       logger,
	}
}

func (h *ProxyHandler) CreateProxy(c *gin.Context) {
	var req dto.CreateProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.proxyService.CreateProxy(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to create proxy", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProxyHandler) GetProxy(c *gin.Context) {
	resp, err := h.proxyService.GetProxy(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to get proxy", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProxyHandler) ListProxies(c *gin.Context) {
	var req dto.ListProxiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.proxyService.ListProxies(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to list proxies", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProxyHandler) UpdateProxy(c *gin.Context) {
	var req dto.UpdateProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.proxyService.UpdateProxy(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, "failed to update proxy", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProxyHandler) DeleteProxy(c *gin.Context) {
	if err := h.proxyService.DeleteProxy(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, "failed to delete proxy", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProxyHandler) SetProxyStatus(c *gin.Context) {
	var req struct {
		Status types.ProxyStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.proxyService.SetProxyStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		RespondError(c, "failed to set proxy status", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProxyHandler) RecordHealthCheck(c *gin.Context) {
	var req struct {
		CheckedAt time.Time `json:"checked_at"`
		IsHealthy *bool     `json:"is_healthy"`
	}
	// body is optional, an empty POST means "checked just now, passed"
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
			return
		}
	}
	if req.CheckedAt.IsZero() {
		req.CheckedAt = time.Now().UTC()
	}
	healthy := req.IsHealthy == nil || *req.IsHealthy

	if err := h.proxyService.RecordHealthCheck(c.Request.Context(), c.Param("id"), req.CheckedAt, healthy); err != nil {
		RespondError(c, "failed to record health check", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProxyHandler) GetAvailability(c *gin.Context) {
	available, err := h.proxyService.IsAvailable(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to check availability", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}
