package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/pkg/pubsub"
	"github.com/qs3c/inbox_premium_server/internal/pkg/queue"
	"github.com/qs3c/inbox_premium_server/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrPremiumNotFound    = errors.New("premium not found")
	ErrNoSubscription     = errors.New("当前账号没有可切换的订阅")
	ErrNotPremiumAdmin    = errors.New("只有订阅管理员可以执行此操作")
	ErrUnknownTier        = errors.New("未知的套餐")
	ErrInvalidSeats       = errors.New("邮箱账号数不能少于 1")
	ErrBillingUnavailable = errors.New("计费服务暂不可用")
)

const (
	lifetimeDuration     = 10 * 365 * 24 * time.Hour
	sevenDayPassDuration = 7 * 24 * time.Hour
)

// PremiumPublisher 推送套餐变更
type PremiumPublisher interface {
	PublishPremium(ctx context.Context, msg *pubsub.PremiumMessage) error
}

// NotificationPusher 投递邮件通知任务
type NotificationPusher interface {
	Push(ctx context.Context, msg *queue.NotificationMessage) error
}

// SubscriptionSwitcher 在计费平台切换订阅
type SubscriptionSwitcher interface {
	UpdateSubscriptionVariant(ctx context.Context, subscriptionID, variantID int64) error
}

// UpgradeOptions 升级参数，指针字段为空时不写入
type UpgradeOptions struct {
	UserID                         int64
	Tier                           model.PremiumTier
	LemonSqueezyRenewsAt           *time.Time
	LemonSqueezyCustomerID         *int64
	LemonSqueezySubscriptionID     *int64
	LemonSqueezySubscriptionItemID *int64
	LemonSqueezyOrderID            *int64
	LemonSqueezyProductID          *int64
	LemonSqueezyVariantID          *int64
	LemonLicenseKey                *string
	LemonLicenseInstanceID         *string
	EmailAccountsAccess            *int
}

type PremiumService struct {
	db            *gorm.DB
	userRepo      *repository.UserRepository
	premiumRepo   *repository.PremiumRepository
	catalog       *premium.Catalog
	publisher     PremiumPublisher
	notifications NotificationPusher
	switcher      SubscriptionSwitcher
	freeCredits   int
	now           func() time.Time
}

func NewPremiumService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	premiumRepo *repository.PremiumRepository,
	catalog *premium.Catalog,
) *PremiumService {
	return &PremiumService{
		db:          db,
		userRepo:    userRepo,
		premiumRepo: premiumRepo,
		catalog:     catalog,
		now:         time.Now,
	}
}

// WithPublisher 设置变更推送
func (s *PremiumService) WithPublisher(p PremiumPublisher) *PremiumService {
	s.publisher = p
	return s
}

// WithNotifications 设置邮件通知队列
func (s *PremiumService) WithNotifications(n NotificationPusher) *PremiumService {
	s.notifications = n
	return s
}

// WithSwitcher 设置计费平台客户端
func (s *PremiumService) WithSwitcher(sw SubscriptionSwitcher) *PremiumService {
	s.switcher = sw
	return s
}

// WithFreeCredits 免费用户每月退订额度
func (s *PremiumService) WithFreeCredits(n int) *PremiumService {
	s.freeCredits = n
	return s
}

// WithClock 替换时钟（测试用）
func (s *PremiumService) WithClock(now func() time.Time) *PremiumService {
	s.now = now
	return s
}

// RenewsAtFor 按套餐计算到期时间：终身 10 年，7 天通行证 7 天，其余用计费平台的值
func RenewsAtFor(tier model.PremiumTier, providerRenewsAt *time.Time, now time.Time) *time.Time {
	switch tier {
	case model.TierLifetime:
		t := now.Add(lifetimeDuration)
		return &t
	case model.TierSevenDayPass:
		t := now.Add(sevenDayPassDuration)
		return &t
	}
	return providerRenewsAt
}

// UpgradeToPremium 升级订阅，返回订阅下所有成员邮箱
func (s *PremiumService) UpgradeToPremium(ctx context.Context, opts UpgradeOptions) ([]string, error) {
	renewsAt := RenewsAtFor(opts.Tier, opts.LemonSqueezyRenewsAt, s.now())
	access := premium.TierAccess(opts.Tier)

	var premiumID int64
	var emails []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		premiumRepo := s.premiumRepo.WithTx(tx)

		user, err := userRepo.GetByID(opts.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user not found for id %d: %w", opts.UserID, ErrUserNotFound)
			}
			return err
		}

		if user.PremiumID != nil {
			premiumID = *user.PremiumID
			if _, err := premiumRepo.UpdateFields(premiumID, upgradeFields(opts, renewsAt, access)); err != nil {
				return err
			}
		} else {
			p := newPremium(opts, renewsAt, access)
			if err := premiumRepo.Create(p, user); err != nil {
				return err
			}
			premiumID = p.ID
		}

		emails, err = userRepo.ListEmailsByPremiumID(premiumID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    opts.UserID,
		"premium_id": premiumID,
		"tier":       opts.Tier,
	}).Info("premium upgraded")

	s.publish(ctx, premiumID, opts.Tier, renewsAt, pubsub.ReasonUpgraded)
	s.notify(ctx, &queue.NotificationMessage{
		Type:      queue.NotifyPremiumActivated,
		UserID:    opts.UserID,
		PremiumID: premiumID,
		Emails:    emails,
		Tier:      string(opts.Tier),
		RenewsAt:  renewsAt,
	})

	return emails, nil
}

func upgradeFields(opts UpgradeOptions, renewsAt *time.Time, access premium.Access) map[string]interface{} {
	fields := map[string]interface{}{
		"tier":                      opts.Tier,
		"lemon_squeezy_renews_at":   renewsAt,
		"bulk_unsubscribe_access":   access.BulkUnsubscribe,
		"ai_automation_access":      access.AIAutomation,
		"cold_email_blocker_access": access.ColdEmailBlocker,
	}
	ids := map[string]*int64{
		"lemon_squeezy_customer_id":          opts.LemonSqueezyCustomerID,
		"lemon_squeezy_subscription_id":      opts.LemonSqueezySubscriptionID,
		"lemon_squeezy_subscription_item_id": opts.LemonSqueezySubscriptionItemID,
		"lemon_squeezy_order_id":             opts.LemonSqueezyOrderID,
		"lemon_squeezy_product_id":           opts.LemonSqueezyProductID,
		"lemon_squeezy_variant_id":           opts.LemonSqueezyVariantID,
	}
	for col, v := range ids {
		if v != nil {
			fields[col] = *v
		}
	}
	if opts.LemonLicenseKey != nil {
		fields["lemon_license_key"] = *opts.LemonLicenseKey
	}
	if opts.LemonLicenseInstanceID != nil {
		fields["lemon_license_instance_id"] = *opts.LemonLicenseInstanceID
	}
	if opts.EmailAccountsAccess != nil {
		fields["email_accounts_access"] = *opts.EmailAccountsAccess
	}
	return fields
}

func newPremium(opts UpgradeOptions, renewsAt *time.Time, access premium.Access) *model.Premium {
	tier := opts.Tier
	p := &model.Premium{
		Tier:                           &tier,
		LemonSqueezyRenewsAt:           renewsAt,
		LemonSqueezyCustomerID:         opts.LemonSqueezyCustomerID,
		LemonSqueezySubscriptionID:     opts.LemonSqueezySubscriptionID,
		LemonSqueezySubscriptionItemID: opts.LemonSqueezySubscriptionItemID,
		LemonSqueezyOrderID:            opts.LemonSqueezyOrderID,
		LemonSqueezyProductID:          opts.LemonSqueezyProductID,
		LemonSqueezyVariantID:          opts.LemonSqueezyVariantID,
		LemonLicenseKey:                opts.LemonLicenseKey,
		LemonLicenseInstanceID:         opts.LemonLicenseInstanceID,
		BulkUnsubscribeAccess:          access.BulkUnsubscribe,
		AIAutomationAccess:             access.AIAutomation,
		ColdEmailBlockerAccess:         access.ColdEmailBlocker,
		EmailAccountsAccess:            model.DefaultEmailAccountsAccess,
	}
	if opts.EmailAccountsAccess != nil {
		p.EmailAccountsAccess = *opts.EmailAccountsAccess
	}
	return p
}

// ExtendPremium 续费，只更新到期时间
func (s *PremiumService) ExtendPremium(ctx context.Context, premiumID int64, renewsAt *time.Time) ([]string, error) {
	var emails []string
	var tier model.PremiumTier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		premiumRepo := s.premiumRepo.WithTx(tx)

		p, err := premiumRepo.GetByID(premiumID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPremiumNotFound
			}
			return err
		}
		tier = premium.TierOf(p, s.now())

		if _, err := premiumRepo.UpdateFields(premiumID, map[string]interface{}{
			"lemon_squeezy_renews_at": renewsAt,
		}); err != nil {
			return err
		}

		emails, err = s.userRepo.WithTx(tx).ListEmailsByPremiumID(premiumID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"premium_id": premiumID,
		"renews_at":  renewsAt,
	}).Info("premium extended")

	s.publish(ctx, premiumID, tier, renewsAt, pubsub.ReasonExtended)
	return emails, nil
}

// CancelPremium 取消订阅：到期时间改为 endsAt，功能全部锁定，邮箱账号数恢复默认。
// variantID 不为空且与订阅不匹配时不做任何修改，返回 nil。
func (s *PremiumService) CancelPremium(ctx context.Context, premiumID int64, variantID *int64, endsAt *time.Time) (*model.Premium, error) {
	var updated *model.Premium
	var emails []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		premiumRepo := s.premiumRepo.WithTx(tx)

		if variantID != nil {
			if _, err := premiumRepo.GetByIDAndVariant(premiumID, *variantID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
		}

		locked := premium.LockedAccess()
		n, err := premiumRepo.UpdateFields(premiumID, map[string]interface{}{
			"lemon_squeezy_renews_at":   endsAt,
			"bulk_unsubscribe_access":   locked.BulkUnsubscribe,
			"ai_automation_access":      locked.AIAutomation,
			"cold_email_blocker_access": locked.ColdEmailBlocker,
			"email_accounts_access":     model.DefaultEmailAccountsAccess,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrPremiumNotFound
		}

		updated, err = premiumRepo.GetByID(premiumID)
		if err != nil {
			return err
		}
		emails, err = s.userRepo.WithTx(tx).ListEmailsByPremiumID(premiumID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		logrus.WithFields(logrus.Fields{
			"premium_id": premiumID,
			"variant_id": *variantID,
		}).Warn("cancel skipped, variant does not match")
		return nil, nil
	}

	logrus.WithField("premium_id", premiumID).Info("premium cancelled")

	s.publish(ctx, premiumID, premium.TierOf(updated, s.now()), endsAt, pubsub.ReasonCancelled)
	s.notify(ctx, &queue.NotificationMessage{
		Type:      queue.NotifyPremiumCancelled,
		PremiumID: premiumID,
		Emails:    emails,
		EndsAt:    endsAt,
	})

	return updated, nil
}

// EditEmailAccountsAccess 邮箱账号数增减，count 为 0 时直接返回
func (s *PremiumService) EditEmailAccountsAccess(ctx context.Context, premiumID int64, count int) error {
	if count == 0 {
		return nil
	}

	n, err := s.premiumRepo.WithTx(s.db.WithContext(ctx)).AddEmailAccounts(premiumID, count)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPremiumNotFound
	}
	return nil
}

// UpdateSeats 管理员调整邮箱账号数，返回调整后的数量
func (s *PremiumService) UpdateSeats(ctx context.Context, userID int64, delta int) (int, error) {
	user, p, err := s.loadUserPremium(userID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, ErrPremiumNotFound
	}
	if err := s.requireAdmin(p.ID, user.ID); err != nil {
		return 0, err
	}
	if delta == 0 {
		return p.EmailAccountsAccess, nil
	}

	var seats int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		premiumRepo := s.premiumRepo.WithTx(tx)

		n, err := premiumRepo.AddEmailAccountsAtLeast(p.ID, delta, 1)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrInvalidSeats
		}

		updated, err := premiumRepo.GetByID(p.ID)
		if err != nil {
			return err
		}
		seats = updated.EmailAccountsAccess
		return nil
	})
	if err != nil {
		return 0, err
	}

	emails, err := s.userRepo.ListEmailsByPremiumID(p.ID)
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"premium_id": p.ID,
		"seats":      seats,
	}).Info("premium seats changed")

	s.publish(ctx, p.ID, premium.TierOf(p, s.now()), p.LemonSqueezyRenewsAt, pubsub.ReasonSeatsChanged)
	s.notify(ctx, &queue.NotificationMessage{
		Type:      queue.NotifySeatsChanged,
		UserID:    userID,
		PremiumID: p.ID,
		Emails:    emails,
		Seats:     seats,
	})

	return seats, nil
}

// SwitchPremiumPlan 在 Lemon Squeezy 上切换订阅套餐，本地状态由 webhook 更新
func (s *PremiumService) SwitchPremiumPlan(ctx context.Context, userID int64, tier model.PremiumTier) error {
	if !premium.IsValidTier(tier) {
		return ErrUnknownTier
	}

	user, p, err := s.loadUserPremium(userID)
	if err != nil {
		return err
	}
	if p == nil || p.LemonSqueezySubscriptionID == nil {
		return ErrNoSubscription
	}
	if err := s.requireAdmin(p.ID, user.ID); err != nil {
		return err
	}

	variantID, err := s.catalog.VariantID(tier)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownTier, err)
	}

	if s.switcher == nil {
		return ErrBillingUnavailable
	}
	if err := s.switcher.UpdateSubscriptionVariant(ctx, *p.LemonSqueezySubscriptionID, variantID); err != nil {
		return fmt.Errorf("%w: %v", ErrBillingUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"premium_id": p.ID,
		"tier":       tier,
		"variant_id": variantID,
	}).Info("premium plan switch requested")
	return nil
}

// GetPremiumStatus 获取用户订阅状态和功能权限
func (s *PremiumService) GetPremiumStatus(userID int64) (*dto.PremiumStatus, error) {
	user, p, err := s.loadUserPremium(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	apiKey := ""
	if user.HasAPIKey() {
		apiKey = *user.AIAPIKeyEnc
	}
	caps := s.resolve(p, apiKey, now)
	tier := premium.TierOf(p, now)

	status := &dto.PremiumStatus{
		IsPremium:              caps.IsPremium,
		Tier:                   string(tier),
		HasUnsubscribeAccess:   caps.HasUnsubscribeAccess,
		HasAIAccess:            caps.HasAIAccess,
		HasColdEmailAccess:     caps.HasColdEmailAccess,
		IsProPlanWithoutAPIKey: p != nil && p.Tier != nil && premium.IsProTierRequiringKey(*p.Tier) && !user.HasAPIKey(),
	}

	if p != nil {
		status.Expired = premium.IsPremiumExpired(p.LemonSqueezyRenewsAt, now)
		if p.LemonSqueezyRenewsAt != nil {
			status.RenewsAt = p.LemonSqueezyRenewsAt.Format(time.RFC3339)
		}
		status.EmailAccountsAccess = p.EmailAccountsAccess
		if !caps.IsPremium {
			credits := CurrentCredits(p, now, s.freeCredits)
			status.UnsubscribeCredits = &credits
		}

		adminIDs, err := s.premiumRepo.ListAdminIDs(p.ID)
		if err != nil {
			return nil, err
		}
		status.IsAdmin = premium.IsAdminForPremium(adminIDs, user.ID)
	}

	if !caps.HasAIAccess {
		status.Alert = buildAlert(p, status.IsProPlanWithoutAPIKey)
	}

	return status, nil
}

// GetCapabilities 只计算功能权限（中间件用）
func (s *PremiumService) GetCapabilities(userID int64) (premium.Capabilities, error) {
	user, p, err := s.loadUserPremium(userID)
	if err != nil {
		return premium.Capabilities{}, err
	}
	apiKey := ""
	if user.HasAPIKey() {
		apiKey = *user.AIAPIKeyEnc
	}
	return s.resolve(p, apiKey, s.now()), nil
}

// resolve 退订额度按本月计算，和 CreditService 保持一致
func (s *PremiumService) resolve(p *model.Premium, apiKey string, now time.Time) premium.Capabilities {
	caps := premium.Resolve(p, apiKey, now)
	if caps.IsPremium {
		return caps
	}

	var access model.FeatureAccess
	if p != nil {
		access = p.BulkUnsubscribeAccess
	}
	credits := CurrentCredits(p, now, s.freeCredits)
	caps.HasUnsubscribeAccess = premium.HasUnsubscribeAccess(access, &credits)
	return caps
}

// GetUserTier 用户当前套餐以及是否过期（价格页用）
func (s *PremiumService) GetUserTier(userID int64) (*model.User, model.PremiumTier, bool, error) {
	user, p, err := s.loadUserPremium(userID)
	if err != nil {
		return nil, "", false, err
	}
	now := s.now()
	if p == nil {
		return user, "", false, nil
	}
	return user, premium.TierOf(p, now), premium.IsPremiumExpired(p.LemonSqueezyRenewsAt, now), nil
}

const businessTierName = "AI Assistant"

func buildAlert(p *model.Premium, showSetAPIKey bool) *dto.PremiumAlert {
	if p != nil && p.Tier != nil && premium.IsBasicTier(*p.Tier) {
		return &dto.PremiumAlert{
			Kind:        dto.AlertSwitchPlan,
			Title:       businessTierName + " Plan Required",
			Description: "Switch to the " + businessTierName + " plan to use this feature.",
			Button:      "Switch Plan",
		}
	}

	desc := "This is a premium feature. Upgrade to the " + businessTierName + " plan"
	if showSetAPIKey {
		desc += " or set an AI API key on the settings page."
	} else {
		desc += "."
	}
	return &dto.PremiumAlert{
		Kind:          dto.AlertUpgrade,
		Title:         "Premium",
		Description:   desc,
		Button:        "Upgrade",
		ShowSetAPIKey: showSetAPIKey,
	}
}

func (s *PremiumService) loadUserPremium(userID int64) (*model.User, *model.Premium, error) {
	user, err := s.userRepo.GetByIDWithPremium(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("user not found for id %d: %w", userID, ErrUserNotFound)
		}
		return nil, nil, err
	}
	return user, user.Premium, nil
}

func (s *PremiumService) requireAdmin(premiumID, userID int64) error {
	adminIDs, err := s.premiumRepo.ListAdminIDs(premiumID)
	if err != nil {
		return err
	}
	if !premium.IsAdminForPremium(adminIDs, userID) {
		return ErrNotPremiumAdmin
	}
	return nil
}

// publish 通知订阅下所有在线成员，失败只记录日志
func (s *PremiumService) publish(ctx context.Context, premiumID int64, tier model.PremiumTier, renewsAt *time.Time, reason string) {
	if s.publisher == nil {
		return
	}
	userIDs, err := s.userRepo.ListIDsByPremiumID(premiumID)
	if err != nil {
		logrus.WithError(err).WithField("premium_id", premiumID).Warn("failed to list premium members")
		return
	}

	isPremium := premium.IsPremium(renewsAt, s.now())
	for _, uid := range userIDs {
		msg := &pubsub.PremiumMessage{
			UserID:    uid,
			PremiumID: premiumID,
			Tier:      string(tier),
			IsPremium: isPremium,
			RenewsAt:  renewsAt,
			Reason:    reason,
		}
		if err := s.publisher.PublishPremium(ctx, msg); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id":    uid,
				"premium_id": premiumID,
			}).Warn("failed to publish premium update")
		}
	}
}

func (s *PremiumService) notify(ctx context.Context, msg *queue.NotificationMessage) {
	if s.notifications == nil || len(msg.Emails) == 0 {
		return
	}
	if err := s.notifications.Push(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"premium_id": msg.PremiumID,
			"type":       msg.Type,
		}).Warn("failed to enqueue notification")
	}
}
