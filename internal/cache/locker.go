package cache

import (
	"context"
	"errors"
	"time"

	"warehouse-service/internal/service"

	"github.com/bsm/redislock"
	"go.uber.org/zap"
)

const lockKeyPrefix = "warehouse:lock:"

// RedisLocker реализует service.Locker. Ключ держится не дольше ttl,
// поэтому упавший процесс не блокирует ресурс навсегда.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	log    *zap.Logger
}

func NewRedisLocker(rdb redislock.RedisClient, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
		log:    log,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, lockKeyPrefix+key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.log.Warn("lock not obtained", zap.String("key", key))
		return nil, service.ErrResourceBusy
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// контекст запроса мог уже истечь, освобождаем отдельным
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
