package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/internal/api/middleware"
	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

type PremiumHandler struct {
	premiumService *service.PremiumService
	catalog        *premium.Catalog
	pricingVariant string
}

func NewPremiumHandler(premiumService *service.PremiumService, catalog *premium.Catalog, pricingVariant string) *PremiumHandler {
	return &PremiumHandler{
		premiumService: premiumService,
		catalog:        catalog,
		pricingVariant: pricingVariant,
	}
}

// Status 当前用户的套餐状态和功能权限
// GET /api/v1/premium/status
func (h *PremiumHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	status, err := h.premiumService.GetPremiumStatus(userID)
	if err != nil {
		writePremiumError(c, err)
		return
	}

	response.Success(c, status)
}

// Pricing 定价页数据，未登录也可访问
// GET /api/v1/premium/pricing?frequency=monthly&aff=xxx
func (h *PremiumHandler) Pricing(c *gin.Context) {
	var query dto.PricingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	in := premium.PageInput{
		Variant:       h.pricingVariant,
		AffiliateCode: query.Affiliate,
	}
	if query.Frequency != "" {
		in.Frequency = premium.ParseFrequency(query.Frequency)
	}

	if userID, ok := middleware.GetUserID(c); ok {
		user, tier, expired, err := h.premiumService.GetUserTier(userID)
		if err != nil && !errors.Is(err, service.ErrUserNotFound) {
			response.ServerError(c, "")
			return
		}
		if user != nil {
			in.Viewer = &premium.Viewer{UserID: user.ID, Email: user.Email, Name: user.Name}
			in.Tier = tier
			in.Expired = expired
		}
	}

	response.Success(c, h.catalog.BuildPage(in))
}

// SwitchPlan 切换订阅套餐
// POST /api/v1/premium/switch
func (h *PremiumHandler) SwitchPlan(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SwitchPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	tier := model.PremiumTier(strings.ToUpper(req.Tier))
	if err := h.premiumService.SwitchPremiumPlan(c.Request.Context(), userID, tier); err != nil {
		writePremiumError(c, err)
		return
	}

	response.SuccessWithMessage(c, "套餐切换已提交", gin.H{"tier": tier})
}

// UpdateSeats 管理员增减邮箱账号数
// POST /api/v1/premium/seats
func (h *PremiumHandler) UpdateSeats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.UpdateSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	seats, err := h.premiumService.UpdateSeats(c.Request.Context(), userID, req.Delta)
	if err != nil {
		writePremiumError(c, err)
		return
	}

	response.Success(c, dto.SeatsResponse{EmailAccountsAccess: seats})
}

func writePremiumError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFoundError(c, "用户不存在")
	case errors.Is(err, service.ErrPremiumNotFound), errors.Is(err, service.ErrNoSubscription):
		response.NotFoundError(c, "当前没有订阅")
	case errors.Is(err, service.ErrNotPremiumAdmin):
		response.PermissionError(c, "只有订阅管理员可以操作")
	case errors.Is(err, service.ErrUnknownTier), errors.Is(err, service.ErrInvalidSeats):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrBillingUnavailable):
		response.BillingError(c, "")
	default:
		response.ServerError(c, "")
	}
}
