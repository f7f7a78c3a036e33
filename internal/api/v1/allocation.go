package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
)

type AllocationHandler struct {
	allocationService service.AllocationService
	logger            *logger.Logger
}

func NewAllocationHandler(allocationService service.AllocationService, logger *logger.Logger) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
		logger:            logger,
	}
}

func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req dto.AllocateProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.allocationService.Allocate(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to allocate proxy", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AllocationHandler) Release(c *gin.Context) {
	resp, err := h.allocationService.Release(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to release allocation", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AllocationHandler) Renew(c *gin.Context) {
	var req dto.RenewAllocationRequest
	// empty body renews for the default lease length
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
			return
		}
	}

	resp, err := h.allocationService.Renew(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, "failed to renew allocation", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AllocationHandler) GetAllocation(c *gin.Context) {
	resp, err := h.allocationService.GetAllocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to get allocation", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AllocationHandler) ListActive(c *gin.Context) {
	resp, err := h.allocationService.ListActive(c.Request.Context())
	if err != nil {
		RespondError(c, "failed to list allocations", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AllocationHandler) ListHistory(c *gin.Context) {
	resp, err := h.allocationService.ListHistory(c.Request.Context(), c.Query("proxy_id"))
	if err != nil {
		RespondError(c, "failed to list allocation history", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
