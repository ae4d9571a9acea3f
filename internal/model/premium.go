package model

import (
	"time"
)

// PremiumTier 订阅套餐
type PremiumTier string

const (
	TierBasicMonthly     PremiumTier = "BASIC_MONTHLY"
	TierBasicAnnually    PremiumTier = "BASIC_ANNUALLY"
	TierProMonthly       PremiumTier = "PRO_MONTHLY"
	TierProAnnually      PremiumTier = "PRO_ANNUALLY"
	TierBusinessMonthly  PremiumTier = "BUSINESS_MONTHLY"
	TierBusinessAnnually PremiumTier = "BUSINESS_ANNUALLY"
	TierCopilotMonthly   PremiumTier = "COPILOT_MONTHLY"
	TierLifetime         PremiumTier = "LIFETIME"
	TierSevenDayPass     PremiumTier = "SEVEN_DAY_PASS"
)

// FeatureAccess 功能访问级别
type FeatureAccess string

const (
	AccessLocked             FeatureAccess = "LOCKED"
	AccessUnlocked           FeatureAccess = "UNLOCKED"
	AccessUnlockedWithAPIKey FeatureAccess = "UNLOCKED_WITH_API_KEY"
)

// DefaultEmailAccountsAccess 取消订阅后保留的邮箱账号数
const DefaultEmailAccountsAccess = 3

type Premium struct {
	ID                             int64         `gorm:"primaryKey" json:"id"`
	Tier                           *PremiumTier  `gorm:"size:32" json:"tier,omitempty"`
	LemonSqueezyRenewsAt           *time.Time    `gorm:"index" json:"renews_at,omitempty"`
	LemonSqueezyCustomerID         *int64        `json:"-"`
	LemonSqueezySubscriptionID     *int64        `gorm:"index" json:"-"`
	LemonSqueezySubscriptionItemID *int64        `json:"-"`
	LemonSqueezyOrderID            *int64        `json:"-"`
	LemonSqueezyProductID          *int64        `json:"-"`
	LemonSqueezyVariantID          *int64        `json:"-"`
	LemonLicenseKey                *string       `gorm:"size:255" json:"-"`
	LemonLicenseInstanceID         *string       `gorm:"size:255" json:"-"`
	BulkUnsubscribeAccess          FeatureAccess `gorm:"size:32" json:"bulk_unsubscribe_access,omitempty"`
	AIAutomationAccess             FeatureAccess `gorm:"column:ai_automation_access;size:32" json:"ai_automation_access,omitempty"`
	ColdEmailBlockerAccess         FeatureAccess `gorm:"size:32" json:"cold_email_blocker_access,omitempty"`
	EmailAccountsAccess            int           `gorm:"default:0" json:"email_accounts_access"`
	UnsubscribeCredits             *int          `json:"unsubscribe_credits,omitempty"`
	UnsubscribeMonth               *int          `json:"-"`
	Users                          []User        `gorm:"foreignKey:PremiumID" json:"-"`
	Admins                         []User        `gorm:"many2many:premium_admins;" json:"-"`
	CreatedAt                      time.Time     `json:"created_at"`
	UpdatedAt                      time.Time     `json:"updated_at"`
}

func (Premium) TableName() string {
	return "premiums"
}
