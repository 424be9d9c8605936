// Package locking provides distributed mutual exclusion on top of Redis.
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/venue-commerce-admin/internal/config"
)

// ErrNotObtained is returned when the lock stays held by someone else for the whole wait
var ErrNotObtained = errors.New("lock not obtained")

// Lock is a held lock
type Lock interface {
	// Refresh extends the lock by ttl; it fails once the lock is no longer held
	Refresh(ctx context.Context, ttl time.Duration) error
	Release(ctx context.Context) error
}

// Locker obtains named locks
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// RedisLocker implements Locker with redislock, retrying at a fixed interval
// until the configured wait is spent.
type RedisLocker struct {
	client   *redislock.Client
	wait     time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(logger *slog.Logger, client redislock.RedisClient, cfg *config.RedisConfig) *RedisLocker {
	return &RedisLocker{
		client:   redislock.New(client),
		wait:     cfg.LockWait,
		interval: cfg.LockInterval,
		logger:   logger,
	}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	opts := &redislock.Options{RetryStrategy: retryStrategy(l.wait, l.interval)}

	lock, err := l.client.Obtain(ctx, key, ttl, opts)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			l.logger.Warn("Lock is held elsewhere", "key", key, "wait", l.wait.String())
			return nil, ErrNotObtained
		}
		l.logger.Error("Failed to obtain lock", "key", key, "error", err)
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return &redisLock{lock: lock, key: key, logger: l.logger}, nil
}

type redisLock struct {
	lock   *redislock.Lock
	key    string
	logger *slog.Logger
}

func (r *redisLock) Refresh(ctx context.Context, ttl time.Duration) error {
	if err := r.lock.Refresh(ctx, ttl, nil); err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return fmt.Errorf("lock %s no longer held: %w", r.key, ErrNotObtained)
		}
		return fmt.Errorf("failed to refresh lock %s: %w", r.key, err)
	}
	return nil
}

func (r *redisLock) Release(ctx context.Context) error {
	if err := r.lock.Release(ctx); err != nil {
		// An expired lock is not an error for the holder; the TTL already freed it.
		if errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.Warn("Lock expired before release", "key", r.key)
			return nil
		}
		return fmt.Errorf("failed to release lock %s: %w", r.key, err)
	}
	return nil
}

func retryStrategy(wait, interval time.Duration) redislock.RetryStrategy {
	n := retryCount(wait, interval)
	if n == 0 {
		return redislock.NoRetry()
	}
	return redislock.LimitRetry(redislock.LinearBackoff(interval), n)
}

// retryCount is how many extra attempts fit into wait
func retryCount(wait, interval time.Duration) int {
	if wait <= 0 || interval <= 0 {
		return 0
	}
	return int(wait / interval)
}
