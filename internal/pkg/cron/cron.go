package cron

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/inbox_premium_server/internal/pkg/logger"
	"github.com/qs3c/inbox_premium_server/internal/service"
)

const (
	retryDelay = 5 * time.Minute
	retryBatch = 50
)

type Service struct {
	creditService  *service.CreditService
	webhookService *service.WebhookService
	stopChan       chan struct{}
}

func NewService(creditService *service.CreditService, webhookService *service.WebhookService) *Service {
	return &Service{
		creditService:  creditService,
		webhookService: webhookService,
		stopChan:       make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runMonthlyCreditReset()
	go s.runWebhookRetry()
	logrus.Info("cron service started (credit reset + webhook retry)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	logrus.Info("cron service stopped")
}

// NextMonthStart 下个月 1 日零点（UTC）
func NextMonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// runMonthlyCreditReset 每月初重置退订额度
func (s *Service) runMonthlyCreditReset() {
	now := time.Now()
	timer := time.NewTimer(NextMonthStart(now).Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.resetCredits()
			now := time.Now()
			timer.Reset(NextMonthStart(now).Sub(now))
		}
	}
}

func (s *Service) resetCredits() {
	if s.creditService == nil {
		return
	}
	if err := s.creditService.ResetMonthly(); err != nil {
		logger.ReportError("cron_credit_reset", err, nil)
	}
}

// runWebhookRetry 每小时重试失败的 webhook
func (s *Service) runWebhookRetry() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.retryWebhooks()
		}
	}
}

func (s *Service) retryWebhooks() int {
	if s.webhookService == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := s.webhookService.RetryFailed(ctx, retryDelay, retryBatch)
	if err != nil {
		logger.ReportError("cron_webhook_retry", err, nil)
	}
	return n
}

// RunNow 立即执行额度重置和 webhook 重试（用于测试或手动触发）
func (s *Service) RunNow() error {
	logrus.Info("manual cron run triggered")
	if s.creditService != nil {
		if err := s.creditService.ResetMonthly(); err != nil {
			return err
		}
	}
	s.retryWebhooks()
	return nil
}
