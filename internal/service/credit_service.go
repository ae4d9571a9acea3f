package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/inbox_premium_server/config"
	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/model/dto"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/repository"
)

var (
	ErrCreditsExhausted = errors.New("本月退订额度已用完")
)

// CreditService 免费用户的月度退订额度
type CreditService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	premiumRepo *repository.PremiumRepository
	cfg         *config.Config
	now         func() time.Time
}

func NewCreditService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	premiumRepo *repository.PremiumRepository,
	cfg *config.Config,
) *CreditService {
	return &CreditService{
		db:          db,
		userRepo:    userRepo,
		premiumRepo: premiumRepo,
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (s *CreditService) WithClock(now func() time.Time) *CreditService {
	s.now = now
	return s
}

// MonthKey 当前月份，格式 202401
func MonthKey(t time.Time) int {
	t = t.UTC()
	return t.Year()*100 + int(t.Month())
}

// CurrentCredits 本月剩余退订额度，记录不是本月的按月初额度计算
func CurrentCredits(p *model.Premium, now time.Time, free int) int {
	if p != nil && p.UnsubscribeMonth != nil && *p.UnsubscribeMonth == MonthKey(now) && p.UnsubscribeCredits != nil {
		return *p.UnsubscribeCredits
	}
	return free
}

// unlimited 付费用户或已解锁批量退订时不计额度
func unlimited(p *model.Premium, now time.Time) bool {
	if p == nil {
		return false
	}
	if premium.IsPremium(p.LemonSqueezyRenewsAt, now) {
		return true
	}
	return p.BulkUnsubscribeAccess == model.AccessUnlocked ||
		p.BulkUnsubscribeAccess == model.AccessUnlockedWithAPIKey
}

// GetCredits 获取退订额度
func (s *CreditService) GetCredits(userID int64) (*dto.CreditsInfo, error) {
	user, err := s.userRepo.GetByIDWithPremium(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	month := MonthKey(now)
	p := user.Premium
	if unlimited(p, now) {
		return &dto.CreditsInfo{Unlimited: true}, nil
	}

	credits := CurrentCredits(p, now, s.cfg.Premium.FreeUnsubscribeCredits)
	return &dto.CreditsInfo{Credits: &credits, Month: month}, nil
}

// UseCredit 使用一次退订额度，返回剩余额度；不限额度时返回 nil
func (s *CreditService) UseCredit(ctx context.Context, userID int64) (*int, error) {
	now := s.now()
	month := MonthKey(now)
	free := s.cfg.Premium.FreeUnsubscribeCredits

	var remaining *int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		premiumRepo := s.premiumRepo.WithTx(tx)

		user, err := userRepo.GetByIDWithPremium(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		p := user.Premium
		if unlimited(p, now) {
			return nil
		}

		if p == nil {
			if free <= 0 {
				return ErrCreditsExhausted
			}
			p = &model.Premium{
				UnsubscribeCredits:  &free,
				UnsubscribeMonth:    &month,
				EmailAccountsAccess: model.DefaultEmailAccountsAccess,
			}
			if err := premiumRepo.Create(p, user); err != nil {
				return err
			}
		} else if p.UnsubscribeMonth == nil || *p.UnsubscribeMonth != month {
			if err := premiumRepo.ResetCredits(p.ID, free, month); err != nil {
				return err
			}
		}

		ok, err := premiumRepo.DecrementCredits(p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCreditsExhausted
		}

		reloaded, err := premiumRepo.GetByID(p.ID)
		if err != nil {
			return err
		}
		remaining = reloaded.UnsubscribeCredits
		return nil
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}

// ResetMonthly 重置所有用户的月度额度
func (s *CreditService) ResetMonthly() error {
	month := MonthKey(s.now())
	n, err := s.premiumRepo.ResetAllCredits(s.cfg.Premium.FreeUnsubscribeCredits, month)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"month":   month,
		"updated": n,
	}).Info("unsubscribe credits reset")
	return nil
}
