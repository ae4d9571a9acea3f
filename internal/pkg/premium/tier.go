package premium

import (
	"github.com/qs3c/inbox_premium_server/internal/model"
)

// AllTiers 返回全部套餐，顺序与等级一致
func AllTiers() []model.PremiumTier {
	return []model.PremiumTier{
		model.TierBasicMonthly,
		model.TierBasicAnnually,
		model.TierProMonthly,
		model.TierProAnnually,
		model.TierBusinessMonthly,
		model.TierBusinessAnnually,
		model.TierCopilotMonthly,
		model.TierLifetime,
		model.TierSevenDayPass,
	}
}

// TierRank 套餐等级，未设置或未知套餐为 0
func TierRank(tier model.PremiumTier) int {
	switch tier {
	case model.TierBasicMonthly:
		return 1
	case model.TierBasicAnnually:
		return 2
	case model.TierProMonthly:
		return 3
	case model.TierProAnnually:
		return 4
	case model.TierBusinessMonthly:
		return 5
	case model.TierBusinessAnnually:
		return 6
	case model.TierCopilotMonthly:
		return 7
	case model.TierLifetime:
		return 8
	case model.TierSevenDayPass:
		return 9
	default:
		return 0
	}
}

// IsOnHigherTier tier1 是否高于 tier2
func IsOnHigherTier(tier1, tier2 model.PremiumTier) bool {
	return TierRank(tier1) > TierRank(tier2)
}

// IsValidTier 是否为已知套餐
func IsValidTier(tier model.PremiumTier) bool {
	return TierRank(tier) > 0
}

// Access 一个套餐对应的三项功能权限
type Access struct {
	BulkUnsubscribe  model.FeatureAccess `json:"bulk_unsubscribe"`
	AIAutomation     model.FeatureAccess `json:"ai_automation"`
	ColdEmailBlocker model.FeatureAccess `json:"cold_email_blocker"`
}

// TierAccess 根据套餐得到功能权限
func TierAccess(tier model.PremiumTier) Access {
	switch tier {
	case model.TierBasicMonthly, model.TierBasicAnnually:
		return Access{
			BulkUnsubscribe:  model.AccessUnlocked,
			AIAutomation:     model.AccessLocked,
			ColdEmailBlocker: model.AccessLocked,
		}
	case model.TierProMonthly, model.TierProAnnually:
		return Access{
			BulkUnsubscribe:  model.AccessUnlocked,
			AIAutomation:     model.AccessUnlockedWithAPIKey,
			ColdEmailBlocker: model.AccessUnlockedWithAPIKey,
		}
	case model.TierBusinessMonthly, model.TierBusinessAnnually, model.TierLifetime, model.TierSevenDayPass:
		return Access{
			BulkUnsubscribe:  model.AccessUnlocked,
			AIAutomation:     model.AccessUnlocked,
			ColdEmailBlocker: model.AccessUnlocked,
		}
	default:
		// copilot 也走这里
		return Access{
			BulkUnsubscribe:  model.AccessUnlockedWithAPIKey,
			AIAutomation:     model.AccessUnlockedWithAPIKey,
			ColdEmailBlocker: model.AccessUnlockedWithAPIKey,
		}
	}
}

// LockedAccess 取消订阅后的权限
func LockedAccess() Access {
	return Access{
		BulkUnsubscribe:  model.AccessLocked,
		AIAutomation:     model.AccessLocked,
		ColdEmailBlocker: model.AccessLocked,
	}
}

// IsBasicTier 基础套餐（含 7 天通行证）
func IsBasicTier(tier model.PremiumTier) bool {
	switch tier {
	case model.TierBasicMonthly, model.TierBasicAnnually, model.TierSevenDayPass:
		return true
	}
	return false
}

// IsProTierRequiringKey 需要用户自带 API Key 才能使用 AI 的套餐
func IsProTierRequiringKey(tier model.PremiumTier) bool {
	switch tier {
	case model.TierProMonthly, model.TierProAnnually, model.TierSevenDayPass:
		return true
	}
	return false
}

// TierName 邮件和页面上展示的套餐名
func TierName(tier model.PremiumTier) string {
	switch tier {
	case model.TierBasicMonthly, model.TierBasicAnnually:
		return "Basic"
	case model.TierProMonthly, model.TierProAnnually:
		return "Pro"
	case model.TierBusinessMonthly, model.TierBusinessAnnually:
		return businessTierName
	case model.TierCopilotMonthly:
		return "Co-Pilot"
	case model.TierLifetime:
		return "Lifetime"
	case model.TierSevenDayPass:
		return "7-Day Pass"
	}
	return string(tier)
}
