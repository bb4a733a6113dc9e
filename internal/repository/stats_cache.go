package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const statsKeyPrefix = "neet:stats:summary:"

// StatsCache keeps serialized stats summaries in redis. A nil client turns
// every call into a miss.
type StatsCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{Redis: rdb, TTL: ttl}
}

func statsKey(userID string) string {
	return statsKeyPrefix + userID
}

// Get decodes the cached summary into dst and reports whether it was found.
func (c *StatsCache) Get(ctx context.Context, userID string, dst any) (bool, error) {
	if c == nil || c.Redis == nil {
		return false, nil
	}
	raw, err := c.Redis.Get(ctx, statsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *StatsCache) Set(ctx context.Context, userID string, summary any) error {
	if c == nil || c.Redis == nil {
		return nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, statsKey(userID), raw, c.TTL).Err()
}

func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil || c.Redis == nil {
		return nil
	}
	return c.Redis.Del(ctx, statsKey(userID)).Err()
}
