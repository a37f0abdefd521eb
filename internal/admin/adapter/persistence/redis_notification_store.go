package persistence

import (
	"context"
	"strconv"
	"time"

	"admin-console/internal/admin/domain/model"
	"admin-console/internal/admin/domain/repository"
	apperrors "admin-console/internal/shared/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultNotificationStream is the stream key used when none is configured.
const DefaultNotificationStream = "admin:notifications"

// RedisNotificationStore keeps notification history in a capped Redis Stream
// so every console instance sharing the Redis sees the same history.
type RedisNotificationStore struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *zap.Logger
}

var _ repository.NotificationStore = (*RedisNotificationStore)(nil)

// NewRedisNotificationStore creates a store on stream capped at maxLen entries.
func NewRedisNotificationStore(client *redis.Client, stream string, maxLen int, log *zap.Logger) *RedisNotificationStore {
	if stream == "" {
		stream = DefaultNotificationStream
	}
	if maxLen <= 0 {
		maxLen = DefaultHistorySize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisNotificationStore{
		client: client,
		stream: stream,
		maxLen: int64(maxLen),
		logger: log.Named("redis_notification_store"),
	}
}

// Append adds n to the stream and trims it to the configured length.
func (r *RedisNotificationStore) Append(ctx context.Context, n model.Notification) error {
	_, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Values: map[string]interface{}{
			"id":        n.ID,
			"resource":  n.Resource,
			"kind":      string(n.Kind),
			"operation": string(n.Operation),
			"recordId":  n.RecordID,
			"message":   n.Message,
			"timestamp": n.Timestamp.UnixNano(),
		},
	}).Result()
	if err != nil {
		r.logger.Error("Failed to store notification in Redis",
			zap.String("stream", r.stream),
			zap.String("notificationId", n.ID),
			zap.Error(err))
		return apperrors.NewInfrastructureError("failed to store notification").WithCause(err)
	}

	r.logger.Debug("Notification stored in Redis",
		zap.String("stream", r.stream),
		zap.String("resource", n.Resource),
		zap.String("kind", string(n.Kind)))
	return nil
}

// Recent reads the newest entries and returns them oldest first.
func (r *RedisNotificationStore) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	count := int64(limit)
	if count <= 0 || count > r.maxLen {
		count = r.maxLen
	}

	msgs, err := r.client.XRevRangeN(ctx, r.stream, "+", "-", count).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.Notification{}, nil
		}
		r.logger.Error("Failed to read notifications from Redis", zap.String("stream", r.stream), zap.Error(err))
		return nil, apperrors.NewInfrastructureError("failed to read notifications").WithCause(err)
	}

	out := make([]model.Notification, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, parseNotification(msgs[i]))
	}

	r.logger.Debug("Read notifications from Redis", zap.String("stream", r.stream), zap.Int("count", len(out)))
	return out, nil
}

// Close closes the underlying client.
func (r *RedisNotificationStore) Close() error {
	return r.client.Close()
}

func parseNotification(msg redis.XMessage) model.Notification {
	n := model.Notification{}

	if v, ok := msg.Values["id"].(string); ok {
		n.ID = v
	}
	if n.ID == "" {
		n.ID = msg.ID
	}
	if v, ok := msg.Values["resource"].(string); ok {
		n.Resource = v
	}
	if v, ok := msg.Values["kind"].(string); ok {
		n.Kind = model.NotificationKind(v)
	}
	if v, ok := msg.Values["operation"].(string); ok {
		n.Operation = model.Operation(v)
	}
	if v, ok := msg.Values["recordId"].(string); ok {
		n.RecordID = v
	}
	if v, ok := msg.Values["message"].(string); ok {
		n.Message = v
	}
	if v, ok := msg.Values["timestamp"].(string); ok {
		if nanos, err := strconv.ParseInt(v, 10, 64); err == nil {
			n.Timestamp = time.Unix(0, nanos).UTC()
		}
	}
	return n
}
