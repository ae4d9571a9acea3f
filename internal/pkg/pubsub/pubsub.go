package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultPremiumChannel = "premium:updates"

	TypePremiumUpdated = "premium_updated"
)

// 套餐变更原因
const (
	ReasonUpgraded     = "upgraded"
	ReasonExtended     = "extended"
	ReasonCancelled    = "cancelled"
	ReasonSeatsChanged = "seats_changed"
)

// PremiumMessage 推送给前端的套餐变更消息
type PremiumMessage struct {
	Type      string     `json:"type"`
	UserID    int64      `json:"user_id"`
	PremiumID int64      `json:"premium_id"`
	Tier      string     `json:"tier,omitempty"`
	IsPremium bool       `json:"is_premium"`
	RenewsAt  *time.Time `json:"renews_at,omitempty"`
	Reason    string     `json:"reason"`
}

// Publisher Redis 发布者
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultPremiumChannel
	}
	return &Publisher{client: client, channel: channel}
}

// PublishPremium 发布套餐变更消息
func (p *Publisher) PublishPremium(ctx context.Context, msg *PremiumMessage) error {
	msg.Type = TypePremiumUpdated

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal premium message: %w", err)
	}

	return p.client.Publish(ctx, p.channel, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client  *redis.Client
	channel string
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	if channel == "" {
		channel = DefaultPremiumChannel
	}
	return &Subscriber{client: client, channel: channel}
}

// Subscribe 订阅套餐变更消息，直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*PremiumMessage)) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	// 等待订阅确认
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", s.channel, err)
	}

	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var premiumMsg PremiumMessage
			if err := json.Unmarshal([]byte(msg.Payload), &premiumMsg); err != nil {
				continue // 忽略解析错误
			}

			handler(&premiumMsg)
		}
	}
}
