package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
)

// ReaperHandler exposes the periodic maintenance sweeps as cron endpoints
type ReaperHandler struct {
	reaperService service.ReaperService
	logger        *logger.Logger
}

func NewReaperHandler(reaperService service.ReaperService, logger *logger.Logger) *ReaperHandler {
	return &ReaperHandler{
		reaperService: reaperService,
		logger:        logger,
	}
}

func (h *ReaperHandler) ExpireAllocations(c *gin.Context) {
	h.logger.Infow("starting allocation expiry cron job")

	count, err := h.reaperService.ExpireAllocations(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("failed to expire allocations",
			"error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed allocation expiry cron job", "expired", count)
	c.JSON(http.StatusOK, gin.H{"status": "completed", "expired": count})
}

func (h *ReaperHandler) SweepUsage(c *gin.Context) {
	h.logger.Infow("starting usage retention cron job")

	count, err := h.reaperService.SweepUsage(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("failed to sweep usage samples",
			"error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed usage retention cron job", "purged", count)
	c.JSON(http.StatusOK, gin.H{"status": "completed", "purged": count})
}

func (h *ReaperHandler) SweepInvoices(c *gin.Context) {
	h.logger.Infow("starting invoice archival cron job")

	count, err := h.reaperService.SweepInvoices(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("failed to archive settled invoices",
			"error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed invoice archival cron job", "archived", count)
	c.JSON(http.StatusOK, gin.H{"status": "completed", "archived": count})
}

func (h *ReaperHandler) RunAll(c *gin.Context) {
	h.logger.Infow("starting combined reaper cron job")

	result, err := h.reaperService.RunAll(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("reaper run finished with errors",
			"error", err,
			"result", result)
		c.Error(err)
		return
	}

	h.logger.Infow("completed combined reaper cron job",
		"allocations_expired", result.AllocationsExpired,
		"usage_samples_purged", result.UsageSamplesPurged,
		"invoices_archived", result.InvoicesArchived)
	c.JSON(http.StatusOK, result)
}
