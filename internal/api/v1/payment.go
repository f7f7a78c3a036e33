package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/payment"
)

type PaymentHandler struct {
	stripeService payment.StripeService
	logger        *logger.Logger
}

func NewPaymentHandler(stripeService payment.StripeService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		stripeService: stripeService,
		logger:        logger,
	}
}

func (h *PaymentHandler) CheckoutTopup(c *gin.Context) {
	var req dto.TopupWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.stripeService.CheckoutTopup(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to start checkout", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PaymentHandler) CheckoutInvoice(c *gin.Context) {
	resp, err := h.stripeService.CheckoutInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, "failed to start checkout", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PaymentHandler) ConfirmCheckout(c *gin.Context) {
	if err := h.stripeService.ConfirmCheckout(c.Request.Context(), c.Param("session_id")); err != nil {
		RespondError(c, "failed to confirm checkout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "settled"})
}
