package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
)

// WalletHandler exposes the ledger-backed wallet: balance, top-ups, debits
// and the transaction history.
type WalletHandler struct {
	ledgerService service.LedgerService
	logger        *logger.Logger
}

func NewWalletHandler(ledgerService service.LedgerService, logger *logger.Logger) *WalletHandler {
	return &WalletHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	resp, err := h.ledgerService.Balance(c.Request.Context())
	if err != nil {
		RespondError(c, "failed to get balance", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) Topup(c *gin.Context) {
	var req dto.TopupWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.ledgerService.Topup(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to top up wallet", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *WalletHandler) Debit(c *gin.Context) {
	var req dto.DebitWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.ledgerService.Debit(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to debit wallet", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *WalletHandler) CreatePendingTopup(c *gin.Context) {
	var req dto.TopupWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.ledgerService.CreatePendingTopup(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to create pending top-up", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *WalletHandler) ConfirmTopup(c *gin.Context) {
	var req dto.ConfirmTopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	req.EntryID = c.Param("id")

	resp, err := h.ledgerService.ConfirmTopup(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to confirm top-up", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WalletHandler) Refund(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.ledgerService.Refund(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, "failed to record refund", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *WalletHandler) History(c *gin.Context) {
	resp, err := h.ledgerService.History(c.Request.Context())
	if err != nil {
		RespondError(c, "failed to get wallet history", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
