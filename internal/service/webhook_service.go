package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/lemonsqueezy"
	"github.com/qs3c/inbox_premium_server/internal/pkg/logger"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/repository"
)

const webhookProvider = "lemonsqueezy"

var (
	ErrInvalidSignature  = errors.New("webhook 签名无效")
	ErrWebhookUser       = errors.New("webhook 无法关联到用户")
	ErrWebhookPremium    = errors.New("webhook 无法关联到订阅")
	ErrUnknownVariant    = errors.New("未知的 variant")
	ErrWebhookProcessing = errors.New("webhook 处理失败")
)

// ArchiveUploader 归档存储
type ArchiveUploader interface {
	UploadArchive(day time.Time, data []byte) (string, error)
}

type WebhookService struct {
	eventRepo      *repository.WebhookEventRepository
	userRepo       *repository.UserRepository
	premiumRepo    *repository.PremiumRepository
	premiumService *PremiumService
	catalog        *premium.Catalog
	secret         string
	now            func() time.Time
}

func NewWebhookService(
	eventRepo *repository.WebhookEventRepository,
	userRepo *repository.UserRepository,
	premiumRepo *repository.PremiumRepository,
	premiumService *PremiumService,
	catalog *premium.Catalog,
	secret string,
) *WebhookService {
	return &WebhookService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		premiumRepo:    premiumRepo,
		premiumService: premiumService,
		catalog:        catalog,
		secret:         secret,
		now:            time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (s *WebhookService) WithClock(now func() time.Time) *WebhookService {
	s.now = now
	return s
}

// EventID 事件唯一标识，按请求体哈希
func EventID(body []byte) string {
	sum := sha256.Sum256(body)
	return "hash:" + hex.EncodeToString(sum[:])
}

// Handle 校验签名、幂等记录并处理 webhook
func (s *WebhookService) Handle(ctx context.Context, body []byte, signature string) (*dto.WebhookResult, error) {
	if !lemonsqueezy.VerifySignature(body, signature, s.secret) {
		logrus.WithField("provider", webhookProvider).Warn("webhook signature mismatch")
		return nil, ErrInvalidSignature
	}

	payload, err := lemonsqueezy.ParsePayload(body)
	if err != nil {
		return nil, err
	}

	created, event, err := s.eventRepo.CreateIfNotExists(&model.BillingWebhookEvent{
		Provider:        webhookProvider,
		ProviderEventID: EventID(body),
		EventType:       payload.Meta.EventName,
		PayloadJSON:     string(body),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, err
	}

	result := &dto.WebhookResult{
		EventID:   event.ID,
		EventType: event.EventType,
		Duplicate: !created,
	}
	if !created && event.ProcessedAt != nil {
		logrus.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.EventType,
		}).Info("duplicate webhook ignored")
		result.Processed = true
		return result, nil
	}

	if err := s.process(ctx, event, payload); err != nil {
		return result, err
	}
	result.Processed = true
	return result, nil
}

// RetryFailed 重新处理失败的事件，返回成功数
func (s *WebhookService) RetryFailed(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	events, err := s.eventRepo.ListFailed(s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	succeeded := 0
	for i := range events {
		event := &events[i]
		payload, err := lemonsqueezy.ParsePayload([]byte(event.PayloadJSON))
		if err != nil {
			// 存档的 payload 无法解析，重试也不会成功
			logrus.WithError(err).WithField("event_id", event.ID).Warn("abandon webhook with unparsable payload")
			_ = s.eventRepo.MarkAbandoned(event.ID, err.Error())
			continue
		}
		if err := s.process(ctx, event, payload); err == nil {
			succeeded++
		}
	}

	if len(events) > 0 {
		logrus.WithFields(logrus.Fields{
			"total":     len(events),
			"succeeded": succeeded,
		}).Info("failed webhooks retried")
	}
	return succeeded, nil
}

// ArchiveProcessed 将处理完成且早于 before 的事件归档后删除，返回归档数量
func (s *WebhookService) ArchiveProcessed(ctx context.Context, uploader ArchiveUploader, before time.Time, batchSize int, dryRun bool) (int, error) {
	if dryRun {
		n, err := s.eventRepo.CountProcessedBefore(before)
		return int(n), err
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		events, err := s.eventRepo.ListProcessedBefore(before, batchSize)
		if err != nil {
			return total, err
		}
		if len(events) == 0 {
			return total, nil
		}

		data, ids, err := encodeArchive(events)
		if err != nil {
			return total, err
		}
		key, err := uploader.UploadArchive(before, data)
		if err != nil {
			return total, err
		}
		if _, err := s.eventRepo.DeleteByIDs(ids); err != nil {
			return total, err
		}

		logrus.WithFields(logrus.Fields{
			"object_key": key,
			"count":      len(ids),
		}).Info("webhook events archived")
		total += len(ids)

		if len(events) < batchSize {
			return total, nil
		}
	}
}

type archivedEvent struct {
	model.BillingWebhookEvent
	Payload json.RawMessage `json:"payload"`
}

// encodeArchive 按 JSON Lines 编码
func encodeArchive(events []model.BillingWebhookEvent) ([]byte, []int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		rec := archivedEvent{BillingWebhookEvent: e}
		if json.Valid([]byte(e.PayloadJSON)) {
			rec.Payload = json.RawMessage(e.PayloadJSON)
		}
		if err := enc.Encode(rec); err != nil {
			return nil, nil, err
		}
		ids = append(ids, e.ID)
	}
	return buf.Bytes(), ids, nil
}

func (s *WebhookService) process(ctx context.Context, event *model.BillingWebhookEvent, payload *lemonsqueezy.Payload) error {
	dispatchErr := s.dispatch(ctx, payload)

	errMsg := ""
	if dispatchErr != nil {
		errMsg = dispatchErr.Error()
	}
	if err := s.eventRepo.MarkProcessed(event.ID, errMsg); err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Error("failed to mark webhook processed")
	}

	if dispatchErr != nil {
		logger.ReportError("billing_webhook", dispatchErr, logrus.Fields{
			"event_id":   event.ID,
			"event_type": payload.Meta.EventName,
			"data_id":    payload.Data.ID,
		})
		return fmt.Errorf("%w: %w", ErrWebhookProcessing, dispatchErr)
	}

	logger.Event("billing_webhook_processed", logrus.Fields{
		"event_id":   event.ID,
		"event_type": payload.Meta.EventName,
	})
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, p *lemonsqueezy.Payload) error {
	switch p.Meta.EventName {
	case lemonsqueezy.EventSubscriptionCreated, lemonsqueezy.EventSubscriptionUpdated:
		return s.handleSubscription(ctx, p)
	case lemonsqueezy.EventSubscriptionPaymentSuccess:
		return s.handlePaymentSuccess(ctx, p)
	case lemonsqueezy.EventSubscriptionCancelled, lemonsqueezy.EventSubscriptionExpired:
		return s.handleCancelled(ctx, p)
	case lemonsqueezy.EventOrderCreated:
		return s.handleOrder(ctx, p)
	default:
		logrus.WithField("event_type", p.Meta.EventName).Debug("webhook event ignored")
		return nil
	}
}

func (s *WebhookService) handleSubscription(ctx context.Context, p *lemonsqueezy.Payload) error {
	attrs := p.Data.Attributes
	subscriptionID := p.ResourceID()

	tier, err := s.catalog.SubscriptionTier(attrs.VariantID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownVariant, err)
	}

	userID, err := s.resolveUser(p, subscriptionID)
	if err != nil {
		return err
	}

	_, err = s.premiumService.UpgradeToPremium(ctx, UpgradeOptions{
		UserID:                         userID,
		Tier:                           tier,
		LemonSqueezyRenewsAt:           attrs.RenewsAt,
		LemonSqueezyCustomerID:         nonZero(attrs.CustomerID),
		LemonSqueezySubscriptionID:     nonZero(subscriptionID),
		LemonSqueezySubscriptionItemID: nonZero(p.SubscriptionItemID()),
		LemonSqueezyOrderID:            nonZero(attrs.OrderID),
		LemonSqueezyProductID:          nonZero(attrs.ProductID),
		LemonSqueezyVariantID:          nonZero(attrs.VariantID),
	})
	return err
}

func (s *WebhookService) handlePaymentSuccess(ctx context.Context, p *lemonsqueezy.Payload) error {
	subscriptionID := p.Data.Attributes.SubscriptionID
	existing, err := s.premiumBySubscription(subscriptionID)
	if err != nil {
		return err
	}

	renewsAt := p.Data.Attributes.RenewsAt
	if renewsAt == nil {
		next := NextRenewal(premium.TierOf(existing, s.now()), existing.LemonSqueezyRenewsAt, s.now())
		renewsAt = &next
	}

	_, err = s.premiumService.ExtendPremium(ctx, existing.ID, renewsAt)
	return err
}

func (s *WebhookService) handleCancelled(ctx context.Context, p *lemonsqueezy.Payload) error {
	existing, err := s.premiumBySubscription(p.ResourceID())
	if err != nil {
		return err
	}

	endsAt := p.Data.Attributes.EndsAt
	if endsAt == nil && p.Meta.EventName == lemonsqueezy.EventSubscriptionExpired {
		now := s.now()
		endsAt = &now
	}

	_, err = s.premiumService.CancelPremium(ctx, existing.ID, nonZero(p.Data.Attributes.VariantID), endsAt)
	return err
}

// handleOrder 一次性购买：终身和 7 天通行证
func (s *WebhookService) handleOrder(ctx context.Context, p *lemonsqueezy.Payload) error {
	productID, variantID := p.OrderVariant()
	tier, err := s.catalog.SubscriptionTier(variantID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownVariant, err)
	}
	if tier != model.TierLifetime && tier != model.TierSevenDayPass {
		// 订阅的首单由 subscription_created 处理
		return nil
	}

	userID, err := s.resolveUser(p, 0)
	if err != nil {
		return err
	}

	_, err = s.premiumService.UpgradeToPremium(ctx, UpgradeOptions{
		UserID:                 userID,
		Tier:                   tier,
		LemonSqueezyCustomerID: nonZero(p.Data.Attributes.CustomerID),
		LemonSqueezyOrderID:    nonZero(p.ResourceID()),
		LemonSqueezyProductID:  nonZero(productID),
		LemonSqueezyVariantID:  nonZero(variantID),
	})
	return err
}

// resolveUser 依次使用结账时附带的 user_id、订阅的第一个成员、付款邮箱
func (s *WebhookService) resolveUser(p *lemonsqueezy.Payload, subscriptionID int64) (int64, error) {
	if id, ok := p.UserID(); ok {
		return id, nil
	}

	if existing, err := s.premiumBySubscription(subscriptionID); err == nil {
		ids, err := s.userRepo.ListIDsByPremiumID(existing.ID)
		if err != nil {
			return 0, err
		}
		if len(ids) > 0 {
			return ids[0], nil
		}
	} else if !errors.Is(err, ErrWebhookPremium) {
		return 0, err
	}

	if email := p.Data.Attributes.UserEmail; email != "" {
		user, err := s.userRepo.GetByEmail(email)
		if err == nil {
			return user.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
	}
	return 0, ErrWebhookUser
}

func (s *WebhookService) premiumBySubscription(subscriptionID int64) (*model.Premium, error) {
	if subscriptionID == 0 {
		return nil, ErrWebhookPremium
	}
	p, err := s.premiumRepo.GetBySubscriptionID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookPremium
		}
		return nil, err
	}
	return p, nil
}

// NextRenewal 扣款成功但没有带到期时间时，按套餐周期顺延
func NextRenewal(tier model.PremiumTier, current *time.Time, now time.Time) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	switch tier {
	case model.TierBasicAnnually, model.TierProAnnually, model.TierBusinessAnnually:
		return base.AddDate(1, 0, 0)
	}
	return base.AddDate(0, 1, 0)
}

func nonZero(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
