// Package cache provides the Redis-backed cache for styled summary variants.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/archipelago-team/meeting-scribe/pkg/config"
)

// NewRedisClient creates a Redis client and verifies connectivity
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// SummaryCache holds recently styled summaries so repeated requests for
// the same role do not re-run the language model.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a styled-summary cache with the given TTL
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached styled text for a session and role, if present.
// The second return reports whether the key was found.
func (c *SummaryCache) Get(ctx context.Context, sessionID, role string) (string, bool, error) {
	if c == nil || c.client == nil {
		return "", false, nil
	}
	val, err := c.client.Get(ctx, c.key(sessionID, role)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores a styled summary for a session and role
func (c *SummaryCache) Set(ctx context.Context, sessionID, role, text string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.key(sessionID, role), text, c.ttl).Err()
}

// Invalidate drops all cached role variants for a session. Called when a
// new rolling summary lands so stale styled text is not served.
func (c *SummaryCache) Invalidate(ctx context.Context, sessionID string, roles []string) error {
	if c == nil || c.client == nil {
		return nil
	}
	keys := make([]string, 0, len(roles))
	for _, role := range roles {
		keys = append(keys, c.key(sessionID, role))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *SummaryCache) key(sessionID, role string) string {
	return fmt.Sprintf("summary:%s:role:%s", sessionID, role)
}
