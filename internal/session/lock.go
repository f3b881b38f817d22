package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
)

// LocalLocker serializes callers per key inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}()

	kl.mu.Lock()
	defer kl.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("WithLock: %w", err)
	}
	return fn(ctx)
}

const lockKeyPrefix = "registration:lock:"

type RedisLockConfig struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultRedisLockConfig() RedisLockConfig {
	return RedisLockConfig{
		Expiry:     10 * time.Second,
		Tries:      20,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker serializes callers per key across processes with a redsync mutex.
type RedisLocker struct {
	rs  *redsync.Redsync
	cfg RedisLockConfig
}

func NewRedisLocker(client *redis.Client, cfg RedisLockConfig) *RedisLocker {
	return &RedisLocker{
		rs:  redsync.New(goredis.NewPool(client)),
		cfg: cfg,
	}
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(lockKeyPrefix+key,
		redsync.WithExpiry(l.cfg.Expiry),
		redsync.WithTries(l.cfg.Tries),
		redsync.WithRetryDelay(l.cfg.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("WithLock: %w: %w", domain.ErrLockUnavailable, err)
	}
	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			logging.FromContext(ctx).Warn("failed to release registration lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}
