package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/inbox_premium_server/internal/model"
	"github.com/qs3c/inbox_premium_server/internal/pkg/logger"
	"github.com/qs3c/inbox_premium_server/internal/pkg/premium"
	"github.com/qs3c/inbox_premium_server/internal/pkg/queue"
)

// DefaultMaxAttempts 单条通知最多发送次数
const DefaultMaxAttempts = 3

var ErrUnknownNotification = errors.New("unknown notification type")

// Mailer 通知邮件发送
type Mailer interface {
	SendPremiumActivated(to []string, tierName string, renewsAt *time.Time) error
	SendPremiumCancelled(to []string, endsAt *time.Time) error
	SendSeatsChanged(to []string, seats int) error
}

// Requeuer 失败的通知重新入队
type Requeuer interface {
	Push(ctx context.Context, msg *queue.NotificationMessage) error
}

// Processor 通知处理器
type Processor struct {
	mailer      Mailer
	requeue     Requeuer
	maxAttempts int
}

// NewProcessor 创建通知处理器，requeue 为 nil 时失败不重试
func NewProcessor(mailer Mailer, requeue Requeuer) *Processor {
	return &Processor{
		mailer:      mailer,
		requeue:     requeue,
		maxAttempts: DefaultMaxAttempts,
	}
}

// WithMaxAttempts 设置最大发送次数
func (p *Processor) WithMaxAttempts(n int) *Processor {
	if n > 0 {
		p.maxAttempts = n
	}
	return p
}

// Process 发送一条通知，失败且未超过次数时重新入队
func (p *Processor) Process(ctx context.Context, msg *queue.NotificationMessage) error {
	err := p.send(msg)
	if err == nil {
		logrus.WithFields(logrus.Fields{
			"type":       msg.Type,
			"premium_id": msg.PremiumID,
			"recipients": len(msg.Emails),
		}).Info("notification sent")
		return nil
	}

	fields := logrus.Fields{
		"type":       msg.Type,
		"premium_id": msg.PremiumID,
		"attempts":   msg.Attempts + 1,
	}

	if errors.Is(err, ErrUnknownNotification) {
		logrus.WithError(err).WithFields(fields).Warn("notification dropped")
		return err
	}

	if p.requeue != nil && msg.Attempts+1 < p.maxAttempts {
		retry := *msg
		retry.Attempts++
		if pushErr := p.requeue.Push(ctx, &retry); pushErr != nil {
			logger.ReportError("notification_requeue", pushErr, fields)
		} else {
			logrus.WithError(err).WithFields(fields).Warn("notification failed, requeued")
		}
		return err
	}

	logger.ReportError("notification_send", err, fields)
	return err
}

func (p *Processor) send(msg *queue.NotificationMessage) error {
	switch msg.Type {
	case queue.NotifyPremiumActivated:
		return p.mailer.SendPremiumActivated(msg.Emails, premium.TierName(model.PremiumTier(msg.Tier)), msg.RenewsAt)
	case queue.NotifyPremiumCancelled:
		return p.mailer.SendPremiumCancelled(msg.Emails, msg.EndsAt)
	case queue.NotifySeatsChanged:
		return p.mailer.SendSeatsChanged(msg.Emails, msg.Seats)
	}
	return fmt.Errorf("%w: %s", ErrUnknownNotification, msg.Type)
}
