package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
	"github.com/proxynest/proxynest/internal/types"
)

type UsageHandler struct {
	usageService service.UsageService
	logger       *logger.Logger
}

func NewUsageHandler(usageService service.UsageService, logger *logger.Logger) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
		logger:       logger,
	}
}

func (h *UsageHandler) Record(c *gin.Context) {
	var req dto.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.usageService.Record(c.Request.Context(), &req); err != nil {
		RespondError(c, "failed to record usage", err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *UsageHandler) RecordBatch(c *gin.Context) {
	var req dto.RecordUsageBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.usageService.RecordBatch(c.Request.Context(), &req); err != nil {
		RespondError(c, "failed to record usage batch", err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *UsageHandler) GetSeries(c *gin.Context) {
	var req dto.UsageSeriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.usageService.GetSeries(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to get usage series", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsageHandler) TopConsumers(c *gin.Context) {
	r, ok := h.parseRange(c)
	if !ok {
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			NewErrorResponse(c, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = parsed
	}

	resp, err := h.usageService.TopConsumers(c.Request.Context(), r, limit)
	if err != nil {
		RespondError(c, "failed to rank consumers", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsageHandler) Totals(c *gin.Context) {
	r, ok := h.parseRange(c)
	if !ok {
		return
	}

	resp, err := h.usageService.Totals(c.Request.Context(), r)
	if err != nil {
		RespondError(c, "failed to sum usage", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsageHandler) parseRange(c *gin.Context) (types.TimeRange, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid from timestamp", err)
		return types.TimeRange{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid to timestamp", err)
		return types.TimeRange{}, false
	}
	return types.TimeRange{From: from, To: to}, true
}
