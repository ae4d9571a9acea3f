package premium

import (
	"time"

	"github.com/qs3c/inbox_premium_server/internal/model"
)

// IsPremium renewsAt 严格晚于 now 才算付费用户
func IsPremium(renewsAt *time.Time, now time.Time) bool {
	return renewsAt != nil && renewsAt.After(now)
}

// IsPremiumExpired 订阅是否已过期
func IsPremiumExpired(renewsAt *time.Time, now time.Time) bool {
	return renewsAt != nil && renewsAt.Before(now)
}

// LegacyTier 老用户没有 tier 字段，按到期时间推断套餐
//
// Deprecated: 仅在 tier 为空时作为兜底使用，见 UserTier。
func LegacyTier(renewsAt *time.Time, now time.Time) model.PremiumTier {
	if renewsAt == nil {
		return ""
	}

	weekLater := now.AddDate(0, 0, 7)
	if renewsAt.After(now) && !renewsAt.After(weekLater) {
		return model.TierSevenDayPass
	}

	if renewsAt.Year()-weekLater.Year() >= 5 {
		return model.TierLifetime
	}

	if renewsAt.After(now.AddDate(0, 6, 0)) {
		return model.TierBusinessAnnually
	}

	return model.TierBusinessMonthly
}

// UserTier 用户当前套餐，tier 优先
func UserTier(tier *model.PremiumTier, renewsAt *time.Time, now time.Time) model.PremiumTier {
	if tier != nil && *tier != "" {
		return *tier
	}
	return LegacyTier(renewsAt, now)
}

// TierOf 从 premium 记录获取套餐
func TierOf(p *model.Premium, now time.Time) model.PremiumTier {
	if p == nil {
		return ""
	}
	return UserTier(p.Tier, p.LemonSqueezyRenewsAt, now)
}

// IsAdminForPremium 没有设置管理员时任何登录用户都视为管理员
func IsAdminForPremium(adminIDs []int64, userID int64) bool {
	if userID == 0 {
		return false
	}
	if len(adminIDs) == 0 {
		return true
	}
	for _, id := range adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasUnsubscribeAccess 批量退订权限；credits 为空视为不限
func HasUnsubscribeAccess(access model.FeatureAccess, credits *int) bool {
	if access == model.AccessUnlocked || access == model.AccessUnlockedWithAPIKey {
		return true
	}
	return credits == nil || *credits != 0
}

// HasAIAccess AI 自动化权限
func HasAIAccess(access model.FeatureAccess, apiKey string) bool {
	return hasFeature(access, apiKey)
}

// HasColdEmailAccess 陌生邮件拦截权限
func HasColdEmailAccess(access model.FeatureAccess, apiKey string) bool {
	return hasFeature(access, apiKey)
}

func hasFeature(access model.FeatureAccess, apiKey string) bool {
	if access == model.AccessUnlocked {
		return true
	}
	return access == model.AccessUnlockedWithAPIKey && apiKey != ""
}

// Capabilities 用户最终能使用的功能
type Capabilities struct {
	IsPremium            bool `json:"is_premium"`
	HasUnsubscribeAccess bool `json:"has_unsubscribe_access"`
	HasAIAccess          bool `json:"has_ai_access"`
	HasColdEmailAccess   bool `json:"has_cold_email_access"`
}

// Resolve 计算用户的功能权限，p 为空时只剩退订额度判断
func Resolve(p *model.Premium, apiKey string, now time.Time) Capabilities {
	if p == nil {
		return Capabilities{
			HasUnsubscribeAccess: HasUnsubscribeAccess("", nil),
		}
	}

	isPremium := IsPremium(p.LemonSqueezyRenewsAt, now)
	return Capabilities{
		IsPremium:            isPremium,
		HasUnsubscribeAccess: isPremium || HasUnsubscribeAccess(p.BulkUnsubscribeAccess, p.UnsubscribeCredits),
		HasAIAccess:          HasAIAccess(p.AIAutomationAccess, apiKey),
		HasColdEmailAccess:   HasColdEmailAccess(p.ColdEmailBlockerAccess, apiKey),
	}
}
