package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := time.Now().UnixNano()
	user := &model.User{
		Email:            fmt.Sprintf("test_%d@example.com", n),
		Name:             fmt.Sprintf("testuser_%d", n%10000),
		ColdEmailBlocker: "DISABLED",
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithName 设置名称
func WithName(name string) func(*model.User) {
	return func(u *model.User) {
		u.Name = name
	}
}

// WithAPIKey 设置已加密的 API Key
func WithAPIKey(enc string) func(*model.User) {
	return func(u *model.User) {
		u.AIAPIKeyEnc = &enc
	}
}

// WithAIModel 设置 AI 模型
func WithAIModel(provider, name string) func(*model.User) {
	return func(u *model.User) {
		u.AIProvider = provider
		u.AIModel = name
	}
}

// TestPremium 创建测试订阅，members 同时作为成员和管理员
func TestPremium(t *testing.T, db *gorm.DB, members []*model.User, opts ...func(*model.Premium)) *model.Premium {
	t.Helper()

	premium := &model.Premium{
		EmailAccountsAccess: model.DefaultEmailAccountsAccess,
	}

	for _, opt := range opts {
		opt(premium)
	}

	if err := db.Create(premium).Error; err != nil {
		t.Fatalf("Failed to create test premium: %v", err)
	}

	for _, u := range members {
		if err := db.Model(&model.User{}).Where("id = ?", u.ID).Update("premium_id", premium.ID).Error; err != nil {
			t.Fatalf("Failed to attach user %d: %v", u.ID, err)
		}
		if err := db.Model(premium).Association("Admins").Append(u); err != nil {
			t.Fatalf("Failed to add admin %d: %v", u.ID, err)
		}
		id := premium.ID
		u.PremiumID = &id
	}

	return premium
}

// WithTier 设置套餐，并按套餐设置功能权限
func WithTier(tier model.PremiumTier, bulk, ai, cold model.FeatureAccess) func(*model.Premium) {
	return func(p *model.Premium) {
		p.Tier = &tier
		p.BulkUnsubscribeAccess = bulk
		p.AIAutomationAccess = ai
		p.ColdEmailBlockerAccess = cold
	}
}

// WithRenewsAt 设置到期时间
func WithRenewsAt(renewsAt time.Time) func(*model.Premium) {
	return func(p *model.Premium) {
		p.LemonSqueezyRenewsAt = &renewsAt
	}
}

// WithSubscription 设置 Lemon Squeezy 订阅 ID 与变体 ID
func WithSubscription(subscriptionID, variantID int64) func(*model.Premium) {
	return func(p *model.Premium) {
		p.LemonSqueezySubscriptionID = &subscriptionID
		p.LemonSqueezyVariantID = &variantID
	}
}

// WithCredits 设置退订额度
func WithCredits(credits, month int) func(*model.Premium) {
	return func(p *model.Premium) {
		p.UnsubscribeCredits = &credits
		p.UnsubscribeMonth = &month
	}
}

// WithSeats 设置邮箱账号数
func WithSeats(seats int) func(*model.Premium) {
	return func(p *model.Premium) {
		p.EmailAccountsAccess = seats
	}
}

// TestRule 创建测试规则
func TestRule(t *testing.T, db *gorm.DB, userID int64, name string) *model.Rule {
	t.Helper()

	rule := &model.Rule{
		UserID:       userID,
		Name:         name,
		Instructions: "Label newsletters as Newsletter",
		Enabled:      true,
	}

	if err := db.Create(rule).Error; err != nil {
		t.Fatalf("Failed to create test rule: %v", err)
	}

	return rule
}

// TestWebhookEvent 创建测试 webhook 事件
func TestWebhookEvent(t *testing.T, db *gorm.DB, eventID, eventType string, processedAt *time.Time) *model.BillingWebhookEvent {
	t.Helper()

	event := &model.BillingWebhookEvent{
		Provider:        "lemonsqueezy",
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     `{"meta":{"event_name":"` + eventType + `"}}`,
		SignatureValid:  true,
		ProcessedAt:     processedAt,
	}

	if err := db.Create(event).Error; err != nil {
		t.Fatalf("Failed to create test webhook event: %v", err)
	}

	return event
}
