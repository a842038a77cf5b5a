package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/poshaakwala/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const uploadIntentsKey = "upload_intents"

// UploadIntentLog tracks uploaded object keys that no committed product references yet.
// Members are scored by the unix time they were recorded.
type UploadIntentLog struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewUploadIntentLog(client *redis.Client) *UploadIntentLog {
	return &UploadIntentLog{client: client, key: uploadIntentsKey, now: time.Now}
}

// Record marks keys as uploaded but not yet committed.
func (l *UploadIntentLog) Record(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	score := float64(l.now().Unix())
	members := make([]redis.Z, len(keys))
	for i, key := range keys {
		members[i] = redis.Z{Score: score, Member: key}
	}
	if err := l.client.ZAdd(ctx, l.key, members...).Err(); err != nil {
		logger.Error("Failed to record upload intents", err, map[string]interface{}{
			"count": len(keys),
		})
		return err
	}
	return nil
}

// Commit forgets keys that are now referenced by a stored product.
func (l *UploadIntentLog) Commit(ctx context.Context, keys ...string) error {
	return l.Forget(ctx, keys...)
}

// Stale returns keys recorded before the cutoff.
func (l *UploadIntentLog) Stale(ctx context.Context, before time.Time) ([]string, error) {
	keys, err := l.client.ZRangeByScore(ctx, l.key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(before.Unix(), 10),
	}).Result()
	if err != nil {
		logger.Error("Failed to read stale upload intents", err, map[string]interface{}{
			"before": before,
		})
		return nil, err
	}
	return keys, nil
}

// Forget removes keys from the log.
func (l *UploadIntentLog) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]interface{}, len(keys))
	for i, key := range keys {
		members[i] = key
	}
	if err := l.client.ZRem(ctx, l.key, members...).Err(); err != nil {
		logger.Error("Failed to forget upload intents", err, map[string]interface{}{
			"count": len(keys),
		})
		return err
	}
	return nil
}
