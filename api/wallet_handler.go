package api

import (
	"net/http"

	"challenger/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	wallets service.WalletService
}

func NewWalletHandler(wallets service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetSummary returns the caller's balance and the amount held in escrow
func (h *WalletHandler) GetSummary(c *gin.Context) {
	summary, err := h.wallets.GetSummary(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	txs, err := h.wallets.GetTransactions(c.Request.Context(), GetUserID(c), limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
