package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobtracker/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	StatsKeyPrefix     = "stats:%d"
	DashboardKeyPrefix = "dashboard:%d"
)

// StatsKey is the cache key for a user's aggregate stats.
func StatsKey(userID uint) string {
	return fmt.Sprintf(StatsKeyPrefix, userID)
}

// DashboardKey is the cache key for a user's dashboard metrics.
func DashboardKey(userID uint) string {
	return fmt.Sprintf(DashboardKeyPrefix, userID)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// CacheAside tries Redis first, on miss it calls fetch (which should populate dest),
// then stores the result in Redis with ttl. A Redis failure falls through to
// fetch so the cache never makes a read fail.
func CacheAside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if ttl <= 0 || client == nil {
		return fetch()
	}

	found, err := GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.CacheRequests.WithLabelValues("hit").Inc()
		return nil
	}
	observability.CacheRequests.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	// Store into cache (best-effort)
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate deletes key, ignoring errors.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops every cached aggregate for userID. Call it after any
// job write.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, StatsKey(userID), DashboardKey(userID))
}
