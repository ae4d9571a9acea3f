package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/internal/api/middleware"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

type CreditHandler struct {
	creditService *service.CreditService
}

func NewCreditHandler(creditService *service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// Get 本月退订额度
// GET /api/v1/unsubscribe/credits
func (h *CreditHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.creditService.GetCredits(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, "用户不存在")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}

// Use 批量退订前扣减一次额度
// POST /api/v1/unsubscribe/credits/use
func (h *CreditHandler) Use(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	remaining, err := h.creditService.UseCredit(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCreditsExhausted):
			response.CreditsError(c, "")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, "用户不存在")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, gin.H{
		"unlimited": remaining == nil,
		"remaining": remaining,
	})
}
