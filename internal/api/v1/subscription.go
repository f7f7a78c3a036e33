package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	invoiceService      service.InvoiceService
	logger              *logger.Logger
}

func NewSubscriptionHandler(
	subscriptionService service.SubscriptionService,
	invoiceService service.InvoiceService,
	logger *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		invoiceService:      invoiceService,
		logger:              logger,
	}
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req dto.SubscribeToProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.subscriptionService.SubscribeToProxy(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to subscribe", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	var req dto.CancelSubscriptionRequest
	// empty body cancels immediately
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
			return
		}
	}

	resp, err := h.subscriptionService.CancelSubscription(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, "failed to cancel subscription", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	resp, err := h.subscriptionService.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to get subscription", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	resp, err := h.subscriptionService.ListSubscriptions(c.Request.Context())
	if err != nil {
		RespondError(c, "failed to list subscriptions", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) Activate(c *gin.Context) {
	var req struct {
		ProviderSubscriptionID string `json:"provider_subscription_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.subscriptionService.ActivateSubscription(c.Request.Context(), c.Param("id"), req.ProviderSubscriptionID)
	if err != nil {
		RespondError(c, "failed to activate subscription", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) ListInvoices(c *gin.Context) {
	resp, err := h.invoiceService.ListBySubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to list subscription invoices", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
