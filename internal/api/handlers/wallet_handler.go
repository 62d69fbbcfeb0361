package handlers

import (
	"strconv"

	"github.com/Mesh2A/digitduel/internal/middleware"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 20

// WalletHandler exposes read-only wallet views. All coin movement happens
// inside the queue/room/match transactions.
type WalletHandler struct {
	walletRepo *repositories.WalletRepository
}

func NewWalletHandler(walletRepo *repositories.WalletRepository) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo}
}

// Balance returns the caller's coin balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.walletRepo.GetBalance(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"balance": balance})
}

// History returns the caller's recent ledger entries.
func (h *WalletHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	history, err := h.walletRepo.GetTransactionHistory(middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"transactions": history})
}
