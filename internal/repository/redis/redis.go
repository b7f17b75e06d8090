package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed logins per key in Redis. The first failure opens
// a window of the given length; the key expires with it.
type LoginLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewLoginLimiter(client *redis.Client, max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		client: client,
		max:    max,
		window: window,
	}
}

func attemptsKey(key string) string {
	return fmt.Sprintf("attempts:%s", key)
}

func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	val, err := l.client.Get(ctx, attemptsKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return false, fmt.Errorf("failed to read login attempts: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("invalid login attempt counter: %w", err)
	}

	return count < l.max, nil
}

func (l *LoginLimiter) Fail(ctx context.Context, key string) error {
	k := attemptsKey(key)

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("failed to count login attempt: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set login attempt window: %w", err)
		}
	}

	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, attemptsKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}

	return nil
}
