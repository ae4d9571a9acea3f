package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/response"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

// Feature 需要套餐权限的功能
type Feature string

const (
	FeatureUnsubscribe Feature = "bulk_unsubscribe"
	FeatureAI          Feature = "ai_automation"
	FeatureColdEmail   Feature = "cold_email_blocker"
)

const statusKey = "premiumStatus"

// RequireFeature 套餐权限检查中间件，无权限时返回升级提示
func RequireFeature(premiumService *service.PremiumService, feature Feature) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		status, err := premiumService.GetPremiumStatus(userID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.NotFoundError(c, "用户不存在")
			} else {
				response.ServerError(c, "权限检查失败")
			}
			c.Abort()
			return
		}

		if !allowed(status, feature) {
			response.PremiumRequired(c, "", status.Alert)
			c.Abort()
			return
		}

		c.Set(statusKey, status)
		c.Next()
	}
}

func allowed(status *dto.PremiumStatus, feature Feature) bool {
	switch feature {
	case FeatureUnsubscribe:
		return status.HasUnsubscribeAccess
	case FeatureAI:
		return status.HasAIAccess
	case FeatureColdEmail:
		return status.HasColdEmailAccess
	}
	return false
}

// GetPremiumStatus 读取 RequireFeature 已查询的订阅状态
func GetPremiumStatus(c *gin.Context) (*dto.PremiumStatus, bool) {
	v, ok := c.Get(statusKey)
	if !ok {
		return nil, false
	}
	status, ok := v.(*dto.PremiumStatus)
	return status, ok
}
