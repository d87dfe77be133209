package handler

import (
	"sierravault/internal/adapter/http/dto"
	"sierravault/internal/adapter/http/middleware"
	"sierravault/internal/core/ports"
	"sierravault/pkg/apperror"
	"sierravault/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler exposes the read-only wallet view.
type WalletHandler struct {
	walletRepo ports.WalletRepository
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletRepo ports.WalletRepository) *WalletHandler {
	return &WalletHandler{walletRepo: walletRepo}
}

// Get handles GET /api/v1/wallet. Only the public key is exposed.
func (h *WalletHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallet, err := h.walletRepo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, apperror.ErrDatabaseError(err))
		return
	}
	if wallet == nil {
		response.Error(c, apperror.ErrKeyNotFound())
		return
	}

	response.OK(c, dto.WalletResponse{
		PublicKey: wallet.PublicKey,
		CreatedAt: wallet.CreatedAt,
	})
}
