package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threatforge/detection-platform/internal/models"
)

// Redis is the shared-cache implementation, used when multiple service
// replicas should reuse each other's validation work. Entries expire with
// the configured TTL; all Redis failures degrade to cache misses because
// correctness never depends on the cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key Key) (*models.ValidationResult, bool) {
	data, err := r.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.DebugContext(ctx, "validation cache read failed", "key", key.String(), "error", err)
		return nil, false
	}

	var result models.ValidationResult
	if err := json.Unmarshal(data, &result); err != nil {
		r.logger.WarnContext(ctx, "validation cache entry corrupt", "key", key.String(), "error", err)
		return nil, false
	}
	return &result, true
}

func (r *Redis) Put(ctx context.Context, key Key, result *models.ValidationResult) {
	data, err := json.Marshal(result)
	if err != nil {
		r.logger.WarnContext(ctx, "validation cache marshal failed", "key", key.String(), "error", err)
		return
	}
	if err := r.client.Set(ctx, key.String(), data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "validation cache write failed", "key", key.String(), "error", err)
	}
}
