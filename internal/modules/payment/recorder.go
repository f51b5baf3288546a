// README: Redis-backed idempotency key recorder.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "payment:idemp:%s"
	// Retries arrive within seconds; a day of retention is generous.
	idempotencyKeyTTL = 24 * time.Hour
)

type RedisKeyRecorder struct {
	redis *redis.Client
}

func NewRedisKeyRecorder(client *redis.Client) *RedisKeyRecorder {
	return &RedisKeyRecorder{redis: client}
}

func (r *RedisKeyRecorder) Lookup(ctx context.Context, key string) (string, bool, error) {
	val, err := r.redis.Get(ctx, idempotencyKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisKeyRecorder) Record(ctx context.Context, key, transactionID string) error {
	return r.redis.Set(ctx, idempotencyKey(key), transactionID, idempotencyKeyTTL).Err()
}

func idempotencyKey(key string) string {
	return fmt.Sprintf(idempotencyKeyPrefix, key)
}
