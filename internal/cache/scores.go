// Package cache provides a read-through Redis cache for user scores. Readers
// tolerate stale entries; the scoring job refreshes them after each recompute.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/egannguyen/cart-insights/internal/entity"
)

const keyPrefix = "cart-insights:score:"

// ScoreCache caches UserScore rows in Redis with a bounded TTL.
type ScoreCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewScoreCache connects a score cache to Redis.
func NewScoreCache(addr string, ttl time.Duration) *ScoreCache {
	return &ScoreCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Get returns the cached score for a user, or nil on a miss.
func (c *ScoreCache) Get(ctx context.Context, userID string) (*entity.UserScore, error) {
	val, err := c.rdb.Get(ctx, keyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached score for user %s: %w", userID, err)
	}

	var s entity.UserScore
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("failed to decode cached score for user %s: %w", userID, err)
	}
	return &s, nil
}

// Set stores a score with the configured TTL.
func (c *ScoreCache) Set(ctx context.Context, score entity.UserScore) error {
	payload, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to encode score for user %s: %w", score.UserID, err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+score.UserID, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache score for user %s: %w", score.UserID, err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *ScoreCache) Close() error {
	return c.rdb.Close()
}
