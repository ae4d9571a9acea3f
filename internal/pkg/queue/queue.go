package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 通知类型
const (
	NotifyPremiumActivated = "premium_activated"
	NotifyPremiumCancelled = "premium_cancelled"
	NotifySeatsChanged     = "seats_changed"
)

type Queue struct {
	client    *redis.Client
	queueName string
}

// NotificationMessage 发给 worker 的邮件通知
type NotificationMessage struct {
	Type      string     `json:"type"`
	UserID    int64      `json:"user_id"`
	PremiumID int64      `json:"premium_id"`
	Emails    []string   `json:"emails"`
	Tier      string     `json:"tier,omitempty"`
	RenewsAt  *time.Time `json:"renews_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	Seats     int        `json:"seats,omitempty"`
	Attempts  int        `json:"attempts,omitempty"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将通知加入队列
func (q *Queue) Push(ctx context.Context, msg *NotificationMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列获取通知（阻塞），超时返回 nil
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*NotificationMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg NotificationMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
