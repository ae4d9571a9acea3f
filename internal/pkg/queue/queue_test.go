package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, mr, cleanup
}

func TestQueue_PushPop(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_notifications")
	ctx := context.Background()

	renewsAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := q.Push(ctx, &NotificationMessage{
		Type:      NotifyPremiumActivated,
		UserID:    10,
		PremiumID: 3,
		Emails:    []string{"a@example.com", "b@example.com"},
		Tier:      "BUSINESS_ANNUALLY",
		RenewsAt:  &renewsAt,
	})
	require.NoError(t, err)

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	msg, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, NotifyPremiumActivated, msg.Type)
	assert.Equal(t, int64(10), msg.UserID)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.Emails)
	assert.True(t, renewsAt.Equal(*msg.RenewsAt))
	assert.Nil(t, msg.EndsAt)
}

func TestQueue_FIFO(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_notifications")
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, q.Push(ctx, &NotificationMessage{Type: NotifySeatsChanged, PremiumID: i}))
	}

	for i := int64(1); i <= 3; i++ {
		msg, err := q.Pop(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, i, msg.PremiumID)
	}
}

func TestQueue_PopInvalidPayload(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_notifications")
	_, err := mr.Lpush("test_notifications", "{not json")
	require.NoError(t, err)

	msg, err := q.Pop(context.Background(), time.Second)
	assert.Error(t, err)
	assert.Nil(t, msg)
}

func TestQueue_PopCancelledContext(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q := NewQueue(client, "test_notifications")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg, err := q.Pop(ctx, time.Second)
	assert.Error(t, err)
	assert.Nil(t, msg)
}
