package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.invoiceService.CreateInvoice(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to create invoice", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to get invoice", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	if number := c.Query("number"); number != "" {
		resp, err := h.invoiceService.GetByNumber(c.Request.Context(), number)
		if err != nil {
			RespondError(c, "failed to get invoice", err)
			return
		}
		c.JSON(http.StatusOK, []any{resp})
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context())
	if err != nil {
		RespondError(c, "failed to list invoices", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	var req dto.MarkInvoicePaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
			return
		}
	}

	resp, err := h.invoiceService.MarkPaid(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, "failed to mark invoice paid", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) Cancel(c *gin.Context) {
	var req dto.CancelInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
			return
		}
	}

	resp, err := h.invoiceService.Cancel(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, "failed to cancel invoice", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) MarkFailed(c *gin.Context) {
	resp, err := h.invoiceService.MarkFailed(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to mark invoice failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) Retry(c *gin.Context) {
	resp, err := h.invoiceService.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to retry invoice", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) Summary(c *gin.Context) {
	resp, err := h.invoiceService.Summary(c.Request.Context())
	if err != nil {
		RespondError(c, "failed to get invoice summary", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
