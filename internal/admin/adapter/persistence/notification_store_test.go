package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"admin-console/internal/admin/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func note(i int) model.Notification {
	return model.Notification{
		ID:        fmt.Sprintf("n%d", i),
		Resource:  model.ResourceUser,
		Kind:      model.NotificationSuccess,
		Operation: model.OperationCreate,
		RecordID:  fmt.Sprintf("u%d", i),
		Message:   "User added successfully",
		Timestamp: time.Unix(1700000000+int64(i), 0).UTC(),
	}
}

func ids(notes []model.Notification) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestMemoryNotificationStore_RingBuffer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryNotificationStore(3)

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, note(i)))
	}

	got, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"n3", "n4", "n5"}, ids(got))

	got, err = store.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"n4", "n5"}, ids(got))
	assert.NoError(t, store.Close())
}

func TestMemoryNotificationStore_DefaultSize(t *testing.T) {
	store := NewMemoryNotificationStore(0)
	ctx := context.Background()
	for i := 0; i < DefaultHistorySize+5; i++ {
		require.NoError(t, store.Append(ctx, note(i)))
	}
	got, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultHistorySize)
	assert.Equal(t, "n5", got[0].ID)
}

func createTestRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:6379",
		DB:           15,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func TestRedisNotificationStore_AppendAndRecent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := createTestRedisClient()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available for testing:", err)
	}

	stream := "admin:notifications:test"
	client.Del(ctx, stream)
	defer client.Del(context.Background(), stream)

	store := NewRedisNotificationStore(client, stream, 3, zap.NewNop())
	defer store.Close()

	got, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i := 1; i <= 4; i++ {
		require.NoError(t, store.Append(ctx, note(i)))
	}

	got, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"n2", "n3", "n4"}, ids(got))
	assert.Equal(t, note(4), got[2])

	got, err = store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"n4"}, ids(got))
}

func TestRedisNotificationStore_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisNotificationStore(client, "", 0, zap.New(core))
	defer store.Close()

	err := store.Append(context.Background(), note(1))
	require.Error(t, err)

	failed := logs.FilterMessage("Failed to store notification in Redis").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "redis_notification_store", failed[0].LoggerName)
	fields := failed[0].ContextMap()
	assert.Equal(t, DefaultNotificationStream, fields["stream"])
	assert.Equal(t, "n1", fields["notificationId"])

	_, err = store.Recent(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Failed to read notifications from Redis").Len())
}

func TestParseNotification_FallsBackToStreamID(t *testing.T) {
	n := parseNotification(redis.XMessage{
		ID:     "1700000000000-0",
		Values: map[string]interface{}{"kind": "error", "message": "Network Error", "timestamp": "not-a-number"},
	})
	assert.Equal(t, "1700000000000-0", n.ID)
	assert.Equal(t, model.NotificationError, n.Kind)
	assert.Equal(t, "Network Error", n.Message)
	assert.True(t, n.Timestamp.IsZero())
}
